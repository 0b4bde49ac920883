package duplicates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixora/fixora-api/api/duplicates"
	mocksdb "github.com/fixora/fixora-api/databases/mocks"
	"github.com/fixora/fixora-api/models"
)

func TestResolver_RelatedForOriginal(t *testing.T) {
	originalID := primitive.NewObjectID()
	dupAID := primitive.NewObjectID()
	dupBID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{
		ID: originalID,
		DuplicateReports: []models.DuplicateRef{
			{ReportID: dupAID.Hex(), Distance: 12},
			{ReportID: dupBID.Hex(), Distance: 34},
		},
		DuplicateCount: 2,
	}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": dupAID}).Return(&models.Report{ID: dupAID}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": dupBID}).Return(&models.Report{ID: dupBID}, nil)

	res := duplicates.Resolver{DB: rdb}
	related, err := res.Related(context.Background(), originalID)
	require.NoError(t, err)

	require.Len(t, related, 2)
	assert.Equal(t, dupAID, related[0].ID)
	assert.True(t, related[0].IsDuplicate)
	assert.Equal(t, 12.0, related[0].Distance)
	assert.Equal(t, dupBID, related[1].ID)
}

func TestResolver_RelatedForDuplicate(t *testing.T) {
	originalID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()
	siblingID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": targetID}).Return(&models.Report{
		ID:               targetID,
		IsDuplicate:      true,
		OriginalReportID: originalID.Hex(),
	}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{
		ID: originalID,
		DuplicateReports: []models.DuplicateRef{
			{ReportID: targetID.Hex(), Distance: 10},
			{ReportID: siblingID.Hex(), Distance: 20},
		},
		DuplicateCount: 2,
	}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": siblingID}).Return(&models.Report{ID: siblingID}, nil)

	res := duplicates.Resolver{DB: rdb}
	related, err := res.Related(context.Background(), targetID)
	require.NoError(t, err)

	// the original plus the one sibling; the target itself is excluded
	require.Len(t, related, 2)
	assert.Equal(t, originalID, related[0].ID)
	assert.True(t, related[0].IsOriginal)
	assert.Equal(t, siblingID, related[1].ID)
	assert.True(t, related[1].IsDuplicate)
}

func TestResolver_RelatedSkipsDanglingReferences(t *testing.T) {
	originalID := primitive.NewObjectID()
	goneID := primitive.NewObjectID()
	aliveID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{
		ID: originalID,
		DuplicateReports: []models.DuplicateRef{
			{ReportID: goneID.Hex()},
			{ReportID: "not-a-hex-id"},
			{ReportID: aliveID.Hex()},
		},
	}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": goneID}).Return(nil, errors.New("mongo: no documents in result"))
	rdb.On("FindOne", mock.Anything, bson.M{"_id": aliveID}).Return(&models.Report{ID: aliveID}, nil)

	res := duplicates.Resolver{DB: rdb}
	related, err := res.Related(context.Background(), originalID)
	require.NoError(t, err)

	require.Len(t, related, 1)
	assert.Equal(t, aliveID, related[0].ID)
}

func TestResolver_RelatedDanglingOriginal(t *testing.T) {
	originalID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": targetID}).Return(&models.Report{
		ID:               targetID,
		IsDuplicate:      true,
		OriginalReportID: originalID.Hex(),
	}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(nil, errors.New("mongo: no documents in result"))

	res := duplicates.Resolver{DB: rdb}
	related, err := res.Related(context.Background(), targetID)

	assert.NoError(t, err)
	assert.Empty(t, related)
}

func TestResolver_GetStatsForOriginal(t *testing.T) {
	originalID := primitive.NewObjectID()
	refs := []models.DuplicateRef{{ReportID: primitive.NewObjectID().Hex(), Distance: 7}}

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{
		ID:               originalID,
		DuplicateReports: refs,
		DuplicateCount:   1,
	}, nil)

	res := duplicates.Resolver{DB: rdb}
	stats, err := res.GetStats(context.Background(), originalID)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.True(t, stats.IsOriginal)
	assert.False(t, stats.IsDuplicate)
	assert.Equal(t, 1, stats.TotalDuplicates)
	assert.Equal(t, refs, stats.DuplicateReports)
}

func TestResolver_GetStatsForDuplicate(t *testing.T) {
	originalID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": targetID}).Return(&models.Report{
		ID:                targetID,
		IsDuplicate:       true,
		OriginalReportID:  originalID.Hex(),
		DuplicateDistance: 15.2,
	}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{
		ID:             originalID,
		DuplicateCount: 3,
	}, nil)

	res := duplicates.Resolver{DB: rdb}
	stats, err := res.GetStats(context.Background(), targetID)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.True(t, stats.IsDuplicate)
	assert.Equal(t, originalID.Hex(), stats.OriginalReportID)
	assert.Equal(t, 15.2, stats.Distance)
	assert.Equal(t, 3, stats.TotalDuplicates)
}

func TestResolver_GetStatsMissingReport(t *testing.T) {
	targetID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": targetID}).Return(nil, errors.New("mongo: no documents in result"))

	res := duplicates.Resolver{DB: rdb}
	stats, err := res.GetStats(context.Background(), targetID)

	assert.NoError(t, err)
	assert.Nil(t, stats)
}
