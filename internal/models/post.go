package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reply is an embedded comment on a post. Username and UserProfilePic are
// denormalized copies taken at reply time; the profile-update fan-out keeps
// them in sync when the author changes either field.
type Reply struct {
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Username       string             `bson:"username" json:"username"`
	UserProfilePic string             `bson:"userProfilePic" json:"userProfilePic"`
	Text           string             `bson:"text" json:"text"`
}

// Post is a text post with an optional image, likes, and embedded replies.
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	PostedBy  primitive.ObjectID   `bson:"postedBy" json:"postedBy"`
	Text      string               `bson:"text" json:"text"`
	Img       string               `bson:"img,omitempty" json:"img,omitempty"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Replies   []Reply              `bson:"replies" json:"replies"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}

// IsLikedBy reports whether the post's likes contain id.
func (p *Post) IsLikedBy(id primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l == id {
			return true
		}
	}
	return false
}
