// Package engine keeps users, posts, comments, activities and notifications
// consistent with each other. Every mutating operation runs as one store
// transaction; notification pushes happen only after it commits.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anonto42/nano-social/backend/internal/aggregate"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventNotify is the push event carrying a notification payload.
const EventNotify = "notify"

// previewLimit bounds the post and comment previews stored on activities.
const previewLimit = 128

// Deliverer pushes an event to a user's live connection, if any.
// Implementations must not block on slow peers.
type Deliverer interface {
	Send(userID string, event string, payload any)
}

// Principal is the authenticated caller.
type Principal struct {
	ID       primitive.ObjectID
	Username string
}

func (p Principal) actor() aggregate.Actor {
	return aggregate.Actor{ID: p.ID, Username: p.Username}
}

type Engine struct {
	store    repositories.Store
	push     Deliverer
	sessions repositories.SessionRepository
	log      *slog.Logger
}

// New builds an engine over store. push may be nil to disable delivery.
func New(store repositories.Store, push Deliverer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, push: push, log: logger.With("component", "engine")}
}

// WithSessions makes DeleteAccount revoke the user's refresh-token sessions.
func (e *Engine) WithSessions(sessions repositories.SessionRepository) *Engine {
	e.sessions = sessions
	return e
}

// runTx runs fn in one transaction. An *Error from fn is returned as is;
// anything else is logged and reported as ErrServerError.
func (e *Engine) runTx(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := e.store.Tx.WithTransaction(ctx, fn)
	if err == nil {
		return nil
	}
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr
	}
	e.log.ErrorContext(ctx, "transaction aborted", "op", op, "error", err)
	return ErrServerError
}

// deliver pushes n to every receiver except skip, one goroutine per
// receiver. It never blocks the caller.
func (e *Engine) deliver(n *models.Notification, receivers []primitive.ObjectID, skip primitive.ObjectID) {
	if e.push == nil || n == nil {
		return
	}
	payload := n.Payload()
	for _, r := range receivers {
		if r == skip {
			continue
		}
		go func(userID string) {
			defer func() {
				if v := recover(); v != nil {
					e.log.Error("notification push panicked", "notification", n.ID.Hex(), "user", userID, "panic", v)
				}
			}()
			e.push.Send(userID, EventNotify, payload)
		}(r.Hex())
	}
}

// applyNotification folds ev into the (post, typ) notification and persists
// the result. It returns the stored record, or nil when none remains.
func (e *Engine) applyNotification(ctx context.Context, postID primitive.ObjectID, typ models.NotificationType, ev aggregate.Event) (*models.Notification, error) {
	n, err := e.store.Notifications.GetByPostAndType(ctx, postID, typ)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	var current *aggregate.State
	if n != nil {
		current = &aggregate.State{Sender: n.Sender, Receivers: n.Receivers, Message: n.Message}
	}
	out, err := aggregate.Apply(current, ev)
	if err != nil {
		return nil, err
	}

	switch {
	case out.Delete:
		if n == nil {
			return nil, nil
		}
		return nil, e.store.Notifications.DeleteNotification(ctx, n.ID)
	case n == nil:
		n = &models.Notification{
			Type:      typ,
			Post:      postID,
			Sender:    out.State.Sender,
			Receivers: out.State.Receivers,
			Message:   out.State.Message,
		}
		return n, e.store.Notifications.CreateNotification(ctx, n)
	default:
		n.Sender = out.State.Sender
		n.Receivers = out.State.Receivers
		n.Message = out.State.Message
		if ev.Kind == aggregate.LikeAdded || ev.Kind == aggregate.CommentAdded {
			n.IsRead = false
		}
		return n, e.store.Notifications.UpdateNotification(ctx, n)
	}
}

// activePost loads a post that is visible, mapping a miss to ErrNotFound.
func (e *Engine) activePost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	post, err := e.store.Posts.GetPostByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !post.State.IsActive() {
		return nil, ErrNotFound
	}
	return post, nil
}

// caller loads the principal's account. A missing or deactivated account
// cannot act.
func (e *Engine) caller(ctx context.Context, p Principal) (*models.User, error) {
	user, err := e.store.Users.GetUserByID(ctx, p.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.State.IsActive() {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// mapMiss turns a repository miss into the given engine error.
func mapMiss(err error, miss *Error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return miss
	}
	return err
}

func prependID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{id}, ids...)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func ptr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}
