package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pushed struct {
	user    string
	event   string
	payload any
}

// recorder is a Deliverer that queues every push.
type recorder struct {
	events chan pushed
}

func (r *recorder) Send(userID string, event string, payload any) {
	r.events <- pushed{user: userID, event: event, payload: payload}
}

func (r *recorder) next(t *testing.T) pushed {
	t.Helper()
	select {
	case p := <-r.events:
		return p
	case <-time.After(time.Second):
		t.Fatal("expected a push")
		return pushed{}
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case p := <-r.events:
		t.Fatalf("unexpected push to %s", p.user)
	case <-time.After(50 * time.Millisecond):
	}
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	engine *Engine
	mem    *memory.Store
	repos  repositories.Store
	push   *recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mem := memory.NewStore()
	push := &recorder{events: make(chan pushed, 64)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		t:      t,
		ctx:    context.Background(),
		engine: New(mem.Repositories(), push, logger),
		mem:    mem,
		repos:  mem.Repositories(),
		push:   push,
	}
}

func (f *fixture) signup(name string) Principal {
	f.t.Helper()
	u, err := f.engine.CreateUser(f.ctx, name, name+"@example.com", "hash-"+name)
	require.NoError(f.t, err)
	return Principal{ID: u.ID, Username: u.Username}
}

func (f *fixture) post(owner Principal, body string, audience models.Audience) *models.Post {
	f.t.Helper()
	post, err := f.engine.CreatePost(f.ctx, owner, body, audience)
	require.NoError(f.t, err)
	return post
}

func (f *fixture) comment(p Principal, postID primitive.ObjectID, text string) *models.Comment {
	f.t.Helper()
	c, err := f.engine.AddComment(f.ctx, p, postID, text)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) like(p Principal, postID primitive.ObjectID, liked bool) {
	f.t.Helper()
	_, err := f.engine.ToggleLike(f.ctx, p, postID, liked)
	require.NoError(f.t, err)
}

func (f *fixture) user(id primitive.ObjectID) *models.User {
	f.t.Helper()
	u, err := f.repos.Users.GetUserByID(f.ctx, id)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) reload(id primitive.ObjectID) *models.Post {
	f.t.Helper()
	p, err := f.repos.Posts.GetPostByID(f.ctx, id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) notification(postID primitive.ObjectID, typ models.NotificationType) *models.Notification {
	f.t.Helper()
	n, err := f.repos.Notifications.GetByPostAndType(f.ctx, postID, typ)
	if err == repositories.ErrNotFound {
		return nil
	}
	require.NoError(f.t, err)
	return n
}

// drain discards pushes made by setup steps.
func (f *fixture) drain() {
	time.Sleep(20 * time.Millisecond)
	for {
		select {
		case <-f.push.events:
		default:
			return
		}
	}
}

func TestCreateUser(t *testing.T) {
	f := setup(t)

	u, err := f.engine.CreateUser(f.ctx, "Alice", "Alice@Example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.Visibility)
	assert.Equal(t, models.LifecycleActive, u.State)
	require.Len(t, u.Activities, 1)

	join, err := f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityJoin, Owner: u.ID})
	require.NoError(t, err)
	assert.Equal(t, u.Activities[0], join.ID)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := f.engine.CreateUser(f.ctx, "ALICE", "other@example.com", "hash")
		assert.ErrorIs(t, err, ErrBadRequest)
	})
	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.engine.CreateUser(f.ctx, "alice2", "alice@example.com", "hash")
		assert.ErrorIs(t, err, ErrBadRequest)
	})
}

func TestRecordLogin(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")

	require.NoError(t, f.engine.RecordLogin(f.ctx, alice.ID, false))
	require.NoError(t, f.engine.RecordLogin(f.ctx, alice.ID, true))

	list, err := f.engine.Activities(f.ctx, alice, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, list, 3)
	types := []models.ActivityType{list[0].Type, list[1].Type, list[2].Type}
	assert.ElementsMatch(t, []models.ActivityType{models.ActivityJoin, models.ActivityFailedLogin, models.ActivitySuccessfulLogin}, types)
	assert.Len(t, f.user(alice.ID).Activities, 3)

	assert.ErrorIs(t, f.engine.RecordLogin(f.ctx, primitive.NewObjectID(), true), ErrNotFound)
}

func TestActivitiesRejectsInvertedRange(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")

	_, err := f.engine.Activities(f.ctx, alice, time.Now(), time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestUpdateVisibility(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")

	writes := f.mem.Writes()
	_, err := f.engine.UpdateVisibility(f.ctx, alice, true)
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, writes, f.mem.Writes())

	u, err := f.engine.UpdateVisibility(f.ctx, alice, false)
	require.NoError(t, err)
	assert.False(t, u.Visibility)
	assert.False(t, f.user(alice.ID).Visibility)
}

func TestUpdatePassword(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")

	require.NoError(t, f.engine.UpdatePassword(f.ctx, alice, "new-hash"))
	u := f.user(alice.ID)
	assert.Equal(t, "new-hash", u.Password)

	activity, err := f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityUpdatePassword, Owner: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, activity.ID, u.Activities[0])
}

func TestProfile(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	f.post(alice, "public", models.AudiencePublic)
	f.post(alice, "private", models.AudiencePrivate)

	own, err := f.engine.Profile(f.ctx, alice, "alice")
	require.NoError(t, err)
	assert.Len(t, own.Posts, 2)

	other, err := f.engine.Profile(f.ctx, bob, "ALICE")
	require.NoError(t, err)
	require.Len(t, other.Posts, 1)
	assert.Equal(t, "public", other.Posts[0].Body)

	_, err = f.engine.UpdateVisibility(f.ctx, alice, false)
	require.NoError(t, err)
	hidden, err := f.engine.Profile(f.ctx, bob, "alice")
	require.NoError(t, err)
	assert.True(t, hidden.Hidden)
	assert.Empty(t, hidden.Posts)

	_, err = f.engine.Profile(f.ctx, bob, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindForbidden, KindOf(ErrForbidden))
	assert.Equal(t, KindBadRequest, KindOf(ErrNoChanges))
	assert.Equal(t, KindServerError, KindOf(io.EOF))
}

func TestDeliveryIsOptional(t *testing.T) {
	mem := memory.NewStore()
	e := New(mem.Repositories(), nil, nil)

	u, err := e.CreateUser(context.Background(), "alice", "alice@example.com", "hash")
	require.NoError(t, err)
	alice := Principal{ID: u.ID, Username: u.Username}
	post, err := e.CreatePost(context.Background(), alice, "hello", models.AudiencePublic)
	require.NoError(t, err)
	_, err = e.AddComment(context.Background(), alice, post.ID, "hi")
	assert.NoError(t, err)
}
