package engine

import (
	"context"

	"github.com/anonto42/nano-social/backend/internal/aggregate"
	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToggleLike sets the caller's like on a post to liked. Asking for the state
// the post is already in fails with ErrNoChanges, which makes blind retries
// safe. A new like pushes the notification to the post owner.
func (e *Engine) ToggleLike(ctx context.Context, p Principal, postID primitive.ObjectID, liked bool) (*models.Post, error) {
	var (
		post *models.Post
		note *models.Notification
	)
	err := e.runTx(ctx, "toggle_like", func(ctx context.Context) error {
		var err error
		post, err = e.activePost(ctx, postID)
		if err != nil {
			return err
		}
		if post.Audience == models.AudiencePrivate && post.Owner != p.ID {
			return ErrUnauthorized
		}
		if post.LikedBy(p.ID) == liked {
			return ErrNoChanges
		}
		user, err := e.caller(ctx, p)
		if err != nil {
			return err
		}

		if liked {
			note, err = e.like(ctx, p, user, post)
		} else {
			err = e.unlike(ctx, p, user, post)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if note != nil {
		e.deliver(note, []primitive.ObjectID{post.Owner}, primitive.NilObjectID)
	}
	return post, nil
}

func (e *Engine) like(ctx context.Context, p Principal, user *models.User, post *models.Post) (*models.Notification, error) {
	activity := &models.Activity{
		Type:        models.ActivityLikePost,
		Owner:       p.ID,
		Post:        ptr(post.ID),
		PostOwner:   ptr(post.Owner),
		PostPreview: aggregate.Truncate(post.Body, previewLimit),
		State:       models.LifecycleActive,
	}
	if err := e.store.Activities.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}

	post.Likes = append([]models.Like{{UserID: p.ID, Username: p.Username, State: models.LifecycleActive}}, post.Likes...)
	if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	user.Likes = prependID(user.Likes, post.ID)
	user.Activities = prependID(user.Activities, activity.ID)
	if err := e.store.Users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return e.applyNotification(ctx, post.ID, models.NotificationLike, aggregate.Event{
		Kind:  aggregate.LikeAdded,
		Owner: post.Owner,
		Actor: p.actor(),
		Count: len(post.Likes),
	})
}

func (e *Engine) unlike(ctx context.Context, p Principal, user *models.User, post *models.Post) error {
	post.RemoveLike(p.ID)

	activity, err := e.store.Activities.FindActivity(ctx, models.ActivityFilter{
		Type:  models.ActivityLikePost,
		Owner: p.ID,
		Post:  ptr(post.ID),
	})
	if err != nil {
		// a like without its activity is corrupted state
		return err
	}
	if err := e.store.Activities.DeleteActivity(ctx, activity.ID); err != nil {
		return err
	}

	if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
		return err
	}

	user.Likes = removeID(user.Likes, post.ID)
	user.Activities = removeID(user.Activities, activity.ID)
	if err := e.store.Users.UpdateUser(ctx, user); err != nil {
		return err
	}

	_, err = e.applyNotification(ctx, post.ID, models.NotificationLike, likeRemoved(post, p.actor()))
	return err
}

// likeRemoved describes the removal of actor's like from post, whose Likes
// no longer contain it.
func likeRemoved(post *models.Post, actor aggregate.Actor) aggregate.Event {
	ev := aggregate.Event{
		Kind:  aggregate.LikeRemoved,
		Owner: post.Owner,
		Actor: actor,
		Count: len(post.Likes),
	}
	if len(post.Likes) > 0 {
		latest := post.Likes[0]
		ev.Latest = &aggregate.Latest{Actor: aggregate.Actor{ID: latest.UserID, Username: latest.Username}}
	}
	return ev
}
