package duplicates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixora/fixora-api/api/duplicates"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	d := duplicates.Distance(40.7128, -74.0060, 40.7128, -74.0060)

	assert.Equal(t, 0.0, d)
}

func TestDistance_Symmetry(t *testing.T) {
	forward := duplicates.Distance(40.7128, -74.0060, 40.7138, -74.0070)
	backward := duplicates.Distance(40.7138, -74.0070, 40.7128, -74.0060)

	assert.InDelta(t, forward, backward, 1e-9)
}

func TestDistance_KnownDistance(t *testing.T) {
	// one degree of latitude is roughly 111.2 km
	d := duplicates.Distance(0, 0, 1, 0)

	assert.InDelta(t, 111195, d, 100)
}

func TestDistance_ShortDistance(t *testing.T) {
	// ~0.001 degrees latitude is roughly 111 meters
	d := duplicates.Distance(40.7128, -74.0060, 40.7138, -74.0060)

	assert.InDelta(t, 111.2, d, 1)
}

func TestDistance_AntipodalPoints(t *testing.T) {
	// atan2 form stays stable at the antipode: half the Earth's circumference
	d := duplicates.Distance(0, 0, 0, 180)

	assert.InDelta(t, 20015086, d, 1000)
}

func TestFormatDistance_SameLocation(t *testing.T) {
	assert.Equal(t, "same location", duplicates.FormatDistance(0))
	assert.Equal(t, "same location", duplicates.FormatDistance(9.9))
}

func TestFormatDistance_MetersAway(t *testing.T) {
	assert.Equal(t, "15m away", duplicates.FormatDistance(15.2))
	assert.Equal(t, "10m away", duplicates.FormatDistance(10))
	assert.Equal(t, "100m away", duplicates.FormatDistance(99.7))
}
