package engine

import (
	"context"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/aggregate"
	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreatePost stores a post together with its "New Post" activity.
func (e *Engine) CreatePost(ctx context.Context, p Principal, body string, audience models.Audience) (*models.Post, error) {
	if strings.TrimSpace(body) == "" || !audience.Valid() {
		return nil, ErrBadRequest
	}

	var post *models.Post
	err := e.runTx(ctx, "create_post", func(ctx context.Context) error {
		user, err := e.caller(ctx, p)
		if err != nil {
			return err
		}

		post = &models.Post{
			Body:     body,
			Audience: audience,
			Owner:    p.ID,
			State:    models.LifecycleActive,
			Comments: []primitive.ObjectID{},
			Likes:    []models.Like{},
		}
		if err := e.store.Posts.CreatePost(ctx, post); err != nil {
			return err
		}

		activity := &models.Activity{
			Type:        models.ActivityNewPost,
			Owner:       p.ID,
			Post:        ptr(post.ID),
			PostOwner:   ptr(p.ID),
			PostPreview: aggregate.Truncate(body, previewLimit),
			State:       models.LifecycleActive,
		}
		if err := e.store.Activities.CreateActivity(ctx, activity); err != nil {
			return err
		}

		user.Posts = prependID(user.Posts, post.ID)
		user.Activities = prependID(user.Activities, activity.ID)
		return e.store.Users.UpdateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Post returns an active post the caller may see.
func (e *Engine) Post(ctx context.Context, p Principal, postID primitive.ObjectID) (*models.Post, error) {
	post, err := e.activePost(ctx, postID)
	if err != nil {
		if KindOf(err) == KindServerError {
			e.log.ErrorContext(ctx, "load post", "post", postID.Hex(), "error", err)
			return nil, ErrServerError
		}
		return nil, err
	}
	if post.Audience == models.AudiencePrivate && post.Owner != p.ID {
		return nil, ErrUnauthorized
	}
	return post, nil
}

// UpdatePost changes the audience of the caller's post.
func (e *Engine) UpdatePost(ctx context.Context, p Principal, postID primitive.ObjectID, audience models.Audience) (*models.Post, error) {
	if !audience.Valid() {
		return nil, ErrBadRequest
	}

	var post *models.Post
	err := e.runTx(ctx, "update_post", func(ctx context.Context) error {
		var err error
		post, err = e.activePost(ctx, postID)
		if err != nil {
			return err
		}
		if post.Owner != p.ID {
			return ErrForbidden
		}
		if post.Audience == audience {
			return ErrNoChanges
		}
		post.Audience = audience
		return e.store.Posts.UpdatePost(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost deactivates the caller's post and its "New Post" activity,
// drops it from the caller's posts and removes every notification about it.
func (e *Engine) DeletePost(ctx context.Context, p Principal, postID primitive.ObjectID) error {
	return e.runTx(ctx, "delete_post", func(ctx context.Context) error {
		post, err := e.activePost(ctx, postID)
		if err != nil {
			return err
		}
		if post.Owner != p.ID {
			return ErrForbidden
		}
		owner, err := e.store.Users.GetUserByID(ctx, post.Owner)
		if err != nil {
			return mapMiss(err, ErrBadRequest)
		}
		if !owner.State.IsActive() {
			return ErrBadRequest
		}
		activity, err := e.store.Activities.FindActivity(ctx, models.ActivityFilter{
			Type:   models.ActivityNewPost,
			Owner:  post.Owner,
			Post:   ptr(post.ID),
			Active: true,
		})
		if err != nil {
			return mapMiss(err, ErrBadRequest)
		}

		post.State = models.LifecycleDeactivated
		if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
			return err
		}
		activity.State = models.LifecycleDeactivated
		if err := e.store.Activities.UpdateActivity(ctx, activity); err != nil {
			return err
		}
		owner.Posts = removeID(owner.Posts, post.ID)
		if err := e.store.Users.UpdateUser(ctx, owner); err != nil {
			return err
		}
		_, err = e.store.Notifications.DeleteByPost(ctx, post.ID)
		return err
	})
}
