package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentRevision is one entry of a comment's edit history.
type CommentRevision struct {
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Comment represents a comment on a post. History is newest first and
// always contains the current text at index 0.
type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Owner     primitive.ObjectID `json:"owner" bson:"owner"`
	PostID    primitive.ObjectID `json:"post_id" bson:"post_id"`
	Comment   string             `json:"comment" bson:"comment"`
	State     Lifecycle          `json:"state" bson:"state"`
	Modified  bool               `json:"modified" bson:"modified"`
	History   []CommentRevision  `json:"history" bson:"history"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=1024"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=1024"`
}
