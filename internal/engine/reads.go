package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifications lists the notifications the caller receives, most recently
// updated first.
func (e *Engine) Notifications(ctx context.Context, p Principal, skip, limit int64) ([]models.Notification, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrBadRequest
	}
	list, err := e.store.Notifications.GetByReceiver(ctx, p.ID, skip, limit)
	if err != nil {
		e.log.ErrorContext(ctx, "list notifications", "user", p.ID.Hex(), "error", err)
		return nil, ErrServerError
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (e *Engine) MarkNotificationRead(ctx context.Context, p Principal, id primitive.ObjectID) error {
	err := e.store.Notifications.MarkAsRead(ctx, id, p.ID)
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	e.log.ErrorContext(ctx, "mark notification read", "notification", id.Hex(), "error", err)
	return ErrServerError
}

// Activities lists the caller's active activities created in [from, to].
func (e *Engine) Activities(ctx context.Context, p Principal, from, to time.Time) ([]models.Activity, error) {
	if to.Before(from) {
		return nil, ErrBadRequest
	}
	list, err := e.store.Activities.ListActivities(ctx, p.ID, from, to)
	if err != nil {
		e.log.ErrorContext(ctx, "list activities", "user", p.ID.Hex(), "error", err)
		return nil, ErrServerError
	}
	if list == nil {
		list = []models.Activity{}
	}
	return list, nil
}

// Profile is what a viewer may see of an account.
type Profile struct {
	User  models.UserCompact `json:"user"`
	Posts []models.Post      `json:"posts,omitempty"`
	// Hidden is set when the account is private to the viewer.
	Hidden bool `json:"hidden"`
}

// Profile returns the active account named username. Other viewers see only
// the public posts of a visible account.
func (e *Engine) Profile(ctx context.Context, viewer Principal, username string) (*Profile, error) {
	user, err := e.store.Users.GetUserByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		e.log.ErrorContext(ctx, "load profile", "username", username, "error", err)
		return nil, ErrServerError
	}
	if !user.State.IsActive() {
		return nil, ErrNotFound
	}

	self := user.ID == viewer.ID
	profile := &Profile{User: user.ToCompact()}
	if !user.Visibility && !self {
		profile.Hidden = true
		return profile, nil
	}

	posts, err := e.store.Posts.GetPostsByOwner(ctx, user.ID)
	if err != nil {
		e.log.ErrorContext(ctx, "load profile posts", "user", user.ID.Hex(), "error", err)
		return nil, ErrServerError
	}
	profile.Posts = []models.Post{}
	for _, post := range posts {
		if !post.State.IsActive() {
			continue
		}
		if !self && post.Audience != models.AudiencePublic {
			continue
		}
		profile.Posts = append(profile.Posts, post)
	}
	return profile, nil
}

// PostComments lists the active comments of a post the caller may see,
// oldest first.
func (e *Engine) PostComments(ctx context.Context, p Principal, postID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := e.Post(ctx, p, postID); err != nil {
		return nil, err
	}
	all, err := e.store.Comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		e.log.ErrorContext(ctx, "list comments", "post", postID.Hex(), "error", err)
		return nil, ErrServerError
	}
	comments := make([]models.Comment, 0, len(all))
	for _, c := range all {
		if c.State.IsActive() {
			comments = append(comments, c)
		}
	}
	return comments, nil
}
