package databases

// go generate: mockery --name OrganizationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fixora/fixora-api/models"
)

const organizationCollectionName = "organizations"

// OrganizationDatabase contains the methods to use with the organization
// database
type OrganizationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Organization, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Organization, error)
	InsertOne(ctx context.Context, org models.Organization, opts ...*options.InsertOneOptions) (interface{}, error)
}

type organizationDatabase struct {
	db DatabaseHelper
}

// NewOrganizationDatabase initializes a new instance of organization database
// with the provided db connection
func NewOrganizationDatabase(db DatabaseHelper) OrganizationDatabase {
	return &organizationDatabase{
		db: db,
	}
}

func (c *organizationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Organization, error) {
	org := &models.Organization{}
	err := c.db.Collection(organizationCollectionName).FindOne(ctx, filter, opts...).Decode(org)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (c *organizationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Organization, error) {
	var orgs []models.Organization
	cur, err := c.db.Collection(organizationCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	if err := cur.Decode(&orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (c *organizationDatabase) InsertOne(ctx context.Context, org models.Organization, opts ...*options.InsertOneOptions) (interface{}, error) {
	return c.db.Collection(organizationCollectionName).InsertOne(ctx, org, opts...)
}
