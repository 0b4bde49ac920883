package databases

// go generate: mockery --name PushTokenDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fixora/fixora-api/models"
)

const pushTokenCollectionName = "pushtokens"

// PushTokenDatabase contains the methods to use with the push token database
type PushTokenDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.PushToken, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PushToken, error)
	InsertOne(ctx context.Context, token models.PushToken, opts ...*options.InsertOneOptions) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type pushTokenDatabase struct {
	db DatabaseHelper
}

// NewPushTokenDatabase initializes a new instance of push token database with
// the provided db connection
func NewPushTokenDatabase(db DatabaseHelper) PushTokenDatabase {
	return &pushTokenDatabase{
		db: db,
	}
}

func (pt *pushTokenDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.PushToken, error) {
	token := &models.PushToken{}
	err := pt.db.Collection(pushTokenCollectionName).FindOne(ctx, filter, opts...).Decode(token)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (pt *pushTokenDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PushToken, error) {
	var tokens []models.PushToken
	cur, err := pt.db.Collection(pushTokenCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	if err := cur.Decode(&tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (pt *pushTokenDatabase) InsertOne(ctx context.Context, token models.PushToken, opts ...*options.InsertOneOptions) (interface{}, error) {
	return pt.db.Collection(pushTokenCollectionName).InsertOne(ctx, token, opts...)
}

func (pt *pushTokenDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return pt.db.Collection(pushTokenCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (pt *pushTokenDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return pt.db.Collection(pushTokenCollectionName).DeleteOne(ctx, filter, opts...)
}
