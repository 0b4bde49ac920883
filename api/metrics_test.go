package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoutePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/reports", "/api/v1/reports"},
		{"/api/v1/reports/507f1f77bcf86cd799439011", "/api/v1/reports/{id}"},
		{"/api/v1/reports/507f1f77bcf86cd799439011/related", "/api/v1/reports/{id}/related"},
		{"/api/v1/user/507f1f77bcf86cd799439011/push-token", "/api/v1/user/{id}/push-token"},
		{"/api/v1/reports/user/short-id", "/api/v1/reports/user/short-id"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRoutePath(tt.path), tt.path)
	}
}

func TestMetricsCollector_ProcessTraceAggregates(t *testing.T) {
	mc := &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		windowStart:  time.Now(),
	}

	mc.processTrace(RequestTrace{Method: "GET", Path: "/api/v1/reports", Status: 200, TotalDuration: 10 * time.Millisecond})
	mc.processTrace(RequestTrace{Method: "GET", Path: "/api/v1/reports", Status: 200, TotalDuration: 30 * time.Millisecond})
	mc.processTrace(RequestTrace{Method: "GET", Path: "/api/v1/reports", Status: 404, TotalDuration: 5 * time.Millisecond})

	routes := mc.GetRouteMetrics()
	require.Len(t, routes, 1)

	m := routes["GET /api/v1/reports"]
	require.NotNil(t, m)
	assert.Equal(t, int64(3), m.Count)
	assert.Equal(t, int64(1), m.ErrorCount)
	assert.Equal(t, 5*time.Millisecond, m.MinTime)
	assert.Equal(t, 30*time.Millisecond, m.MaxTime)
	assert.Equal(t, 15*time.Millisecond, m.AvgTime)
}

func TestMetricsCollector_ObjectIDRoutesAggregateTogether(t *testing.T) {
	mc := &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		windowStart:  time.Now(),
	}

	mc.processTrace(RequestTrace{Method: "GET", Path: "/api/v1/reports/507f1f77bcf86cd799439011", Status: 200, TotalDuration: time.Millisecond})
	mc.processTrace(RequestTrace{Method: "GET", Path: "/api/v1/reports/62a23a1fd8c6d9f3a1b2c3d4", Status: 200, TotalDuration: time.Millisecond})

	routes := mc.GetRouteMetrics()
	require.Len(t, routes, 1)
	assert.Equal(t, int64(2), routes["GET /api/v1/reports/{id}"].Count)
}

func TestMetricsCollector_GetSummary(t *testing.T) {
	mc := &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		windowStart:  time.Now().Add(-time.Second),
	}

	mc.processTrace(RequestTrace{Method: "POST", Path: "/api/v1/reports", Status: 201, TotalDuration: time.Millisecond})
	mc.processTrace(RequestTrace{Method: "POST", Path: "/api/v1/reports", Status: 502, TotalDuration: time.Millisecond})

	summary := mc.GetSummary()
	assert.Equal(t, int64(2), summary["totalRequests"])
	assert.Equal(t, int64(1), summary["totalErrors"])
	assert.Equal(t, 0.5, summary["errorRate"])
	assert.Equal(t, 1, summary["routeCount"])
}

func TestMetricsCollector_RecordTraceDropsWhenFull(t *testing.T) {
	mc := &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		windowStart:  time.Now(),
		traceChan:    make(chan RequestTrace, 1),
	}

	// no consumer running: the second record must not block
	mc.RecordTrace(RequestTrace{Method: "GET", Path: "/a"})
	mc.RecordTrace(RequestTrace{Method: "GET", Path: "/b"})

	assert.Len(t, mc.traceChan, 1)
}
