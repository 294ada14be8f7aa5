package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityType string

const (
	ActivityJoin            ActivityType = "Join"
	ActivityFailedLogin     ActivityType = "Failed Login"
	ActivitySuccessfulLogin ActivityType = "Successful Login"
	ActivityUpdatePassword  ActivityType = "Update Password"
	ActivityNewPost         ActivityType = "New Post"
	ActivityNewComment      ActivityType = "New Comment"
	ActivityLikePost        ActivityType = "Like Post"
)

// Activity is an audit-log entry. Only State changes after creation; the
// previews keep the log readable once the post or comment is gone.
type Activity struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Type           ActivityType        `json:"activity_type" bson:"activity_type"`
	Owner          primitive.ObjectID  `json:"owner" bson:"owner"`
	Post           *primitive.ObjectID `json:"post,omitempty" bson:"post,omitempty"`
	PostOwner      *primitive.ObjectID `json:"post_owner,omitempty" bson:"post_owner,omitempty"`
	Comment        *primitive.ObjectID `json:"comment,omitempty" bson:"comment,omitempty"`
	PostPreview    string              `json:"post_preview,omitempty" bson:"post_preview,omitempty"`
	CommentPreview string              `json:"comment_preview,omitempty" bson:"comment_preview,omitempty"`
	State          Lifecycle           `json:"state" bson:"state"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
}

// ActivityFilter selects activities; zero and nil fields are not constrained.
type ActivityFilter struct {
	Type    ActivityType
	Owner   primitive.ObjectID
	Post    *primitive.ObjectID
	Comment *primitive.ObjectID
	Active  bool // only LifecycleActive when set
}
