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
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fixora/fixora-api/api/duplicates"
	mocksdb "github.com/fixora/fixora-api/databases/mocks"
	"github.com/fixora/fixora-api/models"
)

func TestLinker_LinkWritesBothSides(t *testing.T) {
	originalID := primitive.NewObjectID()
	duplicateID := primitive.NewObjectID()

	existingRef := models.DuplicateRef{ReportID: primitive.NewObjectID().Hex(), Distance: 42}

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{
		ID:               originalID,
		DuplicateReports: []models.DuplicateRef{existingRef},
		DuplicateCount:   1,
	}, nil)

	var duplicateUpdate, originalUpdate bson.M
	rdb.On("UpdateOne", mock.Anything, bson.M{"_id": duplicateID}, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			duplicateUpdate = args.Get(2).(bson.M)
		})
	rdb.On("UpdateOne", mock.Anything, bson.M{"_id": originalID}, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			originalUpdate = args.Get(2).(bson.M)
		})

	l := duplicates.Linker{DB: rdb}
	err := l.Link(context.Background(), duplicateID, originalID, 15.2)
	require.NoError(t, err)

	dupSet := duplicateUpdate["$set"].(bson.M)
	assert.Equal(t, true, dupSet["isDuplicate"])
	assert.Equal(t, originalID.Hex(), dupSet["originalReportId"])
	assert.Equal(t, 15.2, dupSet["duplicateDistance"])

	origSet := originalUpdate["$set"].(bson.M)
	refs := origSet["duplicateReports"].([]models.DuplicateRef)
	require.Len(t, refs, 2)
	assert.Equal(t, existingRef.ReportID, refs[0].ReportID)
	assert.Equal(t, duplicateID.Hex(), refs[1].ReportID)
	assert.Equal(t, 15.2, refs[1].Distance)
	// count and list are written together and stay in step
	assert.Equal(t, 2, origSet["duplicateCount"])
}

func TestLinker_LinkOriginalReadFails(t *testing.T) {
	originalID := primitive.NewObjectID()
	duplicateID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(nil, errors.New("mocked-error"))

	l := duplicates.Linker{DB: rdb}
	err := l.Link(context.Background(), duplicateID, originalID, 10)

	assert.ErrorContains(t, err, "failed to read original report")
}

func TestLinker_LinkDuplicateWriteFails(t *testing.T) {
	originalID := primitive.NewObjectID()
	duplicateID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{ID: originalID}, nil)
	rdb.On("UpdateOne", mock.Anything, bson.M{"_id": duplicateID}, mock.Anything).Return(nil, errors.New("mocked-error"))

	l := duplicates.Linker{DB: rdb}
	err := l.Link(context.Background(), duplicateID, originalID, 10)

	assert.ErrorContains(t, err, "failed to mark duplicate report")
}

func TestLinker_MergeImagesDeduplicatesUnion(t *testing.T) {
	originalID := primitive.NewObjectID()
	duplicateID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{
		ID:        originalID,
		ImageURLs: []string{"a.jpg", "b.jpg"},
	}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": duplicateID}).Return(&models.Report{
		ID:        duplicateID,
		ImageURLs: []string{"b.jpg", "c.jpg", ""},
	}, nil)

	var update bson.M
	rdb.On("UpdateOne", mock.Anything, bson.M{"_id": originalID}, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).
		Run(func(args mock.Arguments) {
			update = args.Get(2).(bson.M)
		})

	l := duplicates.Linker{DB: rdb}
	err := l.MergeImages(context.Background(), originalID, duplicateID)
	require.NoError(t, err)

	set := update["$set"].(bson.M)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, set["imageUrls"])
	assert.Equal(t, "a.jpg", set["image"])
}

func TestLinker_MergeImagesNothingToWrite(t *testing.T) {
	originalID := primitive.NewObjectID()
	duplicateID := primitive.NewObjectID()

	rdb := mocksdb.NewReportDatabase(t)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": originalID}).Return(&models.Report{ID: originalID}, nil)
	rdb.On("FindOne", mock.Anything, bson.M{"_id": duplicateID}).Return(&models.Report{ID: duplicateID}, nil)

	l := duplicates.Linker{DB: rdb}
	err := l.MergeImages(context.Background(), originalID, duplicateID)

	// no UpdateOne expectation registered: both image lists are empty
	assert.NoError(t, err)
}
