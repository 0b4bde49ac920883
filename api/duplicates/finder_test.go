package duplicates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixora/fixora-api/api/duplicates"
	mocksdb "github.com/fixora/fixora-api/databases/mocks"
	"github.com/fixora/fixora-api/models"
)

const (
	baseLat = 40.7128
	baseLon = -74.0060
)

func TestFinder_FindNoCandidates(t *testing.T) {
	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{}, nil)

	f := duplicates.Finder{DB: rdb, DefaultRadiusMeters: 100}
	match := f.Find(context.Background(), baseLat, baseLon, "pothole", 0, "")

	assert.False(t, match.IsDuplicate)
	assert.Nil(t, match.Original)
	assert.NoError(t, match.Err)
}

func TestFinder_FindWithinRadius(t *testing.T) {
	id := primitive.NewObjectID()
	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{
		{
			ID:           id,
			CategorySlug: "pothole",
			Status:       models.StatusPending,
			// ~15m north of the submission point
			Latitude:  baseLat + 0.000135,
			Longitude: baseLon,
		},
	}, nil)

	f := duplicates.Finder{DB: rdb, DefaultRadiusMeters: 100}
	match := f.Find(context.Background(), baseLat, baseLon, "pothole", 0, "")

	assert.True(t, match.IsDuplicate)
	assert.Equal(t, id, match.Original.ID)
	assert.InDelta(t, 15, match.Distance, 1)
	assert.Equal(t, "15m away", match.DistanceText)
}

func TestFinder_FindOutsideRadius(t *testing.T) {
	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{
		{
			ID:     primitive.NewObjectID(),
			Status: models.StatusPending,
			// ~222m north, well past the 100m radius
			Latitude:  baseLat + 0.002,
			Longitude: baseLon,
		},
	}, nil)

	f := duplicates.Finder{DB: rdb, DefaultRadiusMeters: 100}
	match := f.Find(context.Background(), baseLat, baseLon, "pothole", 0, "")

	assert.False(t, match.IsDuplicate)
}

func TestFinder_FindBoundaryIsInclusive(t *testing.T) {
	candidateLat := baseLat + 0.0005
	radius := duplicates.Distance(baseLat, baseLon, candidateLat, baseLon)

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{
		{
			ID:        primitive.NewObjectID(),
			Status:    models.StatusPending,
			Latitude:  candidateLat,
			Longitude: baseLon,
		},
	}, nil)

	f := duplicates.Finder{DB: rdb}
	match := f.Find(context.Background(), baseLat, baseLon, "pothole", radius, "")

	assert.True(t, match.IsDuplicate)
	assert.InDelta(t, radius, match.Distance, 1e-9)
}

func TestFinder_FindNearestWins(t *testing.T) {
	farID := primitive.NewObjectID()
	nearID := primitive.NewObjectID()
	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{
		{ID: farID, Status: models.StatusPending, Latitude: baseLat + 0.0006, Longitude: baseLon},
		{ID: nearID, Status: models.StatusPending, Latitude: baseLat + 0.0002, Longitude: baseLon},
	}, nil)

	f := duplicates.Finder{DB: rdb, DefaultRadiusMeters: 100}
	match := f.Find(context.Background(), baseLat, baseLon, "pothole", 0, "")

	assert.True(t, match.IsDuplicate)
	assert.Equal(t, nearID, match.Original.ID)
}

func TestFinder_FindTieBreaksOnFirstSeen(t *testing.T) {
	firstID := primitive.NewObjectID()
	secondID := primitive.NewObjectID()
	// equidistant candidates, one north and one south
	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{
		{ID: firstID, Status: models.StatusPending, Latitude: baseLat + 0.0003, Longitude: baseLon},
		{ID: secondID, Status: models.StatusPending, Latitude: baseLat - 0.0003, Longitude: baseLon},
	}, nil)

	f := duplicates.Finder{DB: rdb, DefaultRadiusMeters: 100}
	match := f.Find(context.Background(), baseLat, baseLon, "pothole", 0, "")

	assert.True(t, match.IsDuplicate)
	assert.Equal(t, firstID, match.Original.ID)
}

func TestFinder_FindSkipsZeroCoordinates(t *testing.T) {
	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return([]models.Report{
		{ID: primitive.NewObjectID(), Status: models.StatusPending, Latitude: 0, Longitude: 0},
	}, nil)

	f := duplicates.Finder{DB: rdb, DefaultRadiusMeters: 100}
	match := f.Find(context.Background(), 0.0001, 0.0001, "pothole", 0, "")

	assert.False(t, match.IsDuplicate)
}

func TestFinder_FindQueryErrorIsSwallowed(t *testing.T) {
	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	f := duplicates.Finder{DB: rdb, DefaultRadiusMeters: 100}
	match := f.Find(context.Background(), baseLat, baseLon, "pothole", 0, "")

	assert.False(t, match.IsDuplicate)
	assert.EqualError(t, match.Err, "mocked-error")
}
