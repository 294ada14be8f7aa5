package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Audience string

const (
	AudiencePublic  Audience = "Public"
	AudiencePrivate Audience = "Private"
)

func (a Audience) Valid() bool {
	return a == AudiencePublic || a == AudiencePrivate
}

// Like is a denormalized liker entry on a post. Username is a cached copy and
// is not rewritten when the liker renames.
type Like struct {
	UserID   primitive.ObjectID `json:"id" bson:"_id"`
	Username string             `json:"username" bson:"username"`
	State    Lifecycle          `json:"state" bson:"state"`
}

// Post represents a social media post stored in MongoDB.
// Likes[0] is the most recent liker; Comments is chronological.
type Post struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Body      string               `json:"body" bson:"body"`
	Audience  Audience             `json:"audience" bson:"audience"`
	Owner     primitive.ObjectID   `json:"owner" bson:"owner"`
	State     Lifecycle            `json:"state" bson:"state"`
	Comments  []primitive.ObjectID `json:"comments" bson:"comments"`
	Likes     []Like               `json:"likes" bson:"likes"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time            `json:"updated_at" bson:"updated_at"`
}

// LikedBy reports whether userID has a like entry on the post.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	return p.likeIndex(userID) >= 0
}

func (p *Post) likeIndex(userID primitive.ObjectID) int {
	for i, l := range p.Likes {
		if l.UserID == userID {
			return i
		}
	}
	return -1
}

// RemoveLike drops the like entry of userID and reports whether one existed.
func (p *Post) RemoveLike(userID primitive.ObjectID) bool {
	i := p.likeIndex(userID)
	if i < 0 {
		return false
	}
	p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
	return true
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Body     string `json:"body" validate:"required,min=1,max=1024"`
	Audience string `json:"audience" validate:"required,oneof=Public Private"`
}

// UpdatePostRequest defines the request body for changing a post's audience
type UpdatePostRequest struct {
	Audience string `json:"audience" validate:"required"`
}

type ToggleLikeRequest struct {
	IsLiked *bool `json:"isLiked" validate:"required"`
}
