package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// UserRole distinguishes citizens, organization staff and organization admins
type UserRole string

// User roles
const (
	RoleCitizen UserRole = "citizen"
	RoleStaff   UserRole = "staff"
	RoleAdmin   UserRole = "admin"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password" json:"-"`
	Role           UserRole           `bson:"role" json:"role"`
	OrganizationID string             `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	Active         bool               `bson:"active" json:"active"`
	CreatedAt      primitive.DateTime `bson:"createdAt" json:"createdAt"`
	UpdatedAt      primitive.DateTime `bson:"updatedAt" json:"updatedAt"`
}
