// Package models defines the persistent documents and the API error taxonomy.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member account. Password is bcrypt-hashed at rest and never
// serialized in API responses; UpdatedAt is likewise internal-only.
type User struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name       string               `bson:"name" json:"name"`
	Email      string               `bson:"email" json:"email"`
	Username   string               `bson:"username" json:"username"`
	Password   string               `bson:"password,omitempty" json:"-"`
	Bio        string               `bson:"bio" json:"bio"`
	ProfilePic string               `bson:"profilePic" json:"profilePic"`
	Followers  []primitive.ObjectID `bson:"followers" json:"followers"`
	Following  []primitive.ObjectID `bson:"following" json:"following"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"-"`
}

// IsFollowing reports whether the user's following set contains id.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}
