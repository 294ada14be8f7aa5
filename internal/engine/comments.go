package engine

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/aggregate"
	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddComment creates a comment on an active post, logs it on the caller's
// activity trail and subscribes the caller to the post's comment notification.
// Every other subscriber is pushed the updated notification.
func (e *Engine) AddComment(ctx context.Context, p Principal, postID primitive.ObjectID, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBadRequest
	}

	var (
		comment *models.Comment
		note    *models.Notification
	)
	err := e.runTx(ctx, "add_comment", func(ctx context.Context) error {
		post, err := e.activePost(ctx, postID)
		if err != nil {
			return err
		}
		if post.Audience == models.AudiencePrivate && post.Owner != p.ID {
			return ErrUnauthorized
		}
		user, err := e.caller(ctx, p)
		if err != nil {
			return err
		}

		comment = &models.Comment{
			Owner:   p.ID,
			PostID:  post.ID,
			Comment: text,
			State:   models.LifecycleActive,
			History: []models.CommentRevision{{Comment: text, CreatedAt: time.Now()}},
		}
		if err := e.store.Comments.CreateComment(ctx, comment); err != nil {
			return err
		}

		post.Comments = append(post.Comments, comment.ID)
		if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
			return err
		}

		activity := &models.Activity{
			Type:           models.ActivityNewComment,
			Owner:          p.ID,
			Post:           ptr(post.ID),
			PostOwner:      ptr(post.Owner),
			Comment:        ptr(comment.ID),
			PostPreview:    aggregate.Truncate(post.Body, previewLimit),
			CommentPreview: aggregate.Truncate(text, previewLimit),
			State:          models.LifecycleActive,
		}
		if err := e.store.Activities.CreateActivity(ctx, activity); err != nil {
			return err
		}

		user.Comments = prependID(user.Comments, comment.ID)
		user.Activities = prependID(user.Activities, activity.ID)
		if err := e.store.Users.UpdateUser(ctx, user); err != nil {
			return err
		}

		note, err = e.applyNotification(ctx, post.ID, models.NotificationComment, aggregate.Event{
			Kind:  aggregate.CommentAdded,
			Owner: post.Owner,
			Actor: p.actor(),
			Count: len(post.Comments),
			Text:  text,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if note != nil {
		e.deliver(note, note.Receivers, p.ID)
	}
	return comment, nil
}

// UpdateComment replaces the text of the caller's comment. The new text is
// prepended to the history and the comment is marked modified for good.
func (e *Engine) UpdateComment(ctx context.Context, p Principal, commentID primitive.ObjectID, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBadRequest
	}

	var comment *models.Comment
	err := e.runTx(ctx, "update_comment", func(ctx context.Context) error {
		var err error
		comment, err = e.ownedComment(ctx, p, commentID)
		if err != nil {
			return err
		}
		if comment.Comment == text {
			return ErrNoChanges
		}

		comment.Comment = text
		comment.Modified = true
		comment.History = append([]models.CommentRevision{{Comment: text, CreatedAt: time.Now()}}, comment.History...)
		return e.store.Comments.UpdateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment deactivates the caller's comment and its activity entry and
// drops it from the post and the caller. The caller leaves the comment
// notification once they have nothing left on the post; the notification
// itself goes away with the post's last comment.
func (e *Engine) DeleteComment(ctx context.Context, p Principal, commentID primitive.ObjectID) error {
	return e.runTx(ctx, "delete_comment", func(ctx context.Context) error {
		comment, err := e.ownedComment(ctx, p, commentID)
		if err != nil {
			return err
		}

		post, err := e.store.Posts.GetPostByID(ctx, comment.PostID)
		if err != nil {
			return mapMiss(err, ErrBadRequest)
		}
		owner, err := e.store.Users.GetUserByID(ctx, comment.Owner)
		if err != nil {
			return mapMiss(err, ErrBadRequest)
		}
		if !owner.State.IsActive() {
			return ErrBadRequest
		}
		activity, err := e.store.Activities.FindActivity(ctx, models.ActivityFilter{
			Type:    models.ActivityNewComment,
			Owner:   comment.Owner,
			Comment: ptr(comment.ID),
			Active:  true,
		})
		if err != nil {
			return mapMiss(err, ErrBadRequest)
		}

		post.Comments = removeID(post.Comments, comment.ID)
		owner.Comments = removeID(owner.Comments, comment.ID)
		activity.State = models.LifecycleDeactivated
		comment.State = models.LifecycleDeactivated

		if err := e.store.Comments.UpdateComment(ctx, comment); err != nil {
			return err
		}
		if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
			return err
		}
		if err := e.store.Users.UpdateUser(ctx, owner); err != nil {
			return err
		}
		if err := e.store.Activities.UpdateActivity(ctx, activity); err != nil {
			return err
		}

		latest, err := e.latestComment(ctx, post)
		if err != nil {
			return err
		}
		_, err = e.applyNotification(ctx, post.ID, models.NotificationComment, aggregate.Event{
			Kind:            aggregate.CommentRemoved,
			Owner:           post.Owner,
			Actor:           aggregate.Actor{ID: owner.ID, Username: owner.Username},
			Count:           len(post.Comments),
			StillSubscribed: commentsOn(owner.Comments, post),
			Latest:          latest,
		})
		return err
	})
}

// ownedComment loads an active comment and checks it belongs to p.
func (e *Engine) ownedComment(ctx context.Context, p Principal, id primitive.ObjectID) (*models.Comment, error) {
	comment, err := e.store.Comments.GetCommentByID(ctx, id)
	if err != nil {
		return nil, mapMiss(err, ErrNotFound)
	}
	if !comment.State.IsActive() {
		return nil, ErrNotFound
	}
	if comment.Owner != p.ID {
		return nil, ErrForbidden
	}
	return comment, nil
}

// latestComment describes the newest comment still listed on post, or nil
// when there is none.
func (e *Engine) latestComment(ctx context.Context, post *models.Post) (*aggregate.Latest, error) {
	if len(post.Comments) == 0 {
		return nil, nil
	}
	c, err := e.store.Comments.GetCommentByID(ctx, post.Comments[len(post.Comments)-1])
	if err != nil {
		return nil, err
	}
	author, err := e.store.Users.GetUserByID(ctx, c.Owner)
	if err != nil {
		return nil, err
	}
	return &aggregate.Latest{
		Actor: aggregate.Actor{ID: author.ID, Username: author.Username},
		Text:  c.Comment,
	}, nil
}

// commentsOn reports whether any of the user's comment ids is listed on post.
func commentsOn(userComments []primitive.ObjectID, post *models.Post) bool {
	for _, id := range userComments {
		if containsID(post.Comments, id) {
			return true
		}
	}
	return false
}
