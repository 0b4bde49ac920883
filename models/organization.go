package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Organization holds the structure for the organizations collection in mongo.
// Categories lists the category slugs the organization handles; a report
// assigned to an organization must carry one of them.
type Organization struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name       string             `bson:"name" json:"name"`
	Categories []string           `bson:"categories" json:"categories"`
	City       string             `bson:"city,omitempty" json:"city,omitempty"`
	CreatedAt  primitive.DateTime `bson:"createdAt" json:"createdAt"`
}

// HandlesCategory reports whether the organization covers the given category
// slug. An organization with no categories configured accepts everything.
func (o *Organization) HandlesCategory(slug string) bool {
	if len(o.Categories) == 0 {
		return true
	}
	for _, c := range o.Categories {
		if c == slug {
			return true
		}
	}
	return false
}
