package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repos := s.Repositories()

	require.NoError(t, repos.Users.CreateUser(ctx, &models.User{Username: "alice"}))
	before := s.Dump()

	boom := errors.New("boom")
	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Users.CreateUser(ctx, &models.User{Username: "bob"}))
		require.NoError(t, repos.Posts.CreatePost(ctx, &models.Post{Body: "hi"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, s.Dump())
	assert.Equal(t, 1, s.Count(CollectionUsers))
	assert.Zero(t, s.Count(CollectionPosts))
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repos := s.Repositories()

	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			return repos.Users.CreateUser(ctx, &models.User{Username: "inner"})
		}))
		return errors.New("outer fails")
	})
	assert.Error(t, err)
	assert.Zero(t, s.Count(CollectionUsers))
}

func TestFailNextIsOneShot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repos := s.Repositories()

	s.FailNext("users.create", nil)
	err := repos.Users.CreateUser(ctx, &models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrInjected)
	assert.Zero(t, s.Writes())

	require.NoError(t, repos.Users.CreateUser(ctx, &models.User{Username: "alice"}))
	assert.Equal(t, 1, s.Writes())
}

func TestDocumentsAreCopied(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	post := &models.Post{Body: "original", Likes: []models.Like{{UserID: primitive.NewObjectID(), Username: "bob"}}}
	require.NoError(t, repos.Posts.CreatePost(ctx, post))
	post.Body = "mutated"
	post.Likes[0].Username = "mallory"

	stored, err := repos.Posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Body)
	assert.Equal(t, "bob", stored.Likes[0].Username)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	id := primitive.NewObjectID()

	_, err := repos.Users.GetUserByID(ctx, id)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repos.Posts.UpdatePost(ctx, &models.Post{ID: id}), repositories.ErrNotFound)
	assert.ErrorIs(t, repos.Comments.DeleteComment(ctx, id), repositories.ErrNotFound)
	_, err = repos.Notifications.GetByPostAndType(ctx, id, models.NotificationLike)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = repos.Activities.FindActivity(ctx, models.ActivityFilter{Owner: id})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestNotificationsByReceiver(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	alice := primitive.NewObjectID()

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		n := &models.Notification{Post: primitive.NewObjectID(), Type: models.NotificationLike, Receivers: []primitive.ObjectID{alice}}
		require.NoError(t, repos.Notifications.CreateNotification(ctx, n))
		ids = append(ids, n.ID)
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, repos.Notifications.CreateNotification(ctx, &models.Notification{Post: primitive.NewObjectID(), Receivers: []primitive.ObjectID{primitive.NewObjectID()}}))

	list, err := repos.Notifications.GetByReceiver(ctx, alice, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID, "most recently updated first")
	assert.Equal(t, ids[1], list[1].ID)

	list, err = repos.Notifications.GetByReceiver(ctx, alice, 2, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[0], list[0].ID)

	assert.ErrorIs(t, repos.Notifications.MarkAsRead(ctx, ids[0], primitive.NewObjectID()), repositories.ErrNotFound)
	require.NoError(t, repos.Notifications.MarkAsRead(ctx, ids[0], alice))
	n, err := repos.Notifications.GetByPostAndType(ctx, list[0].Post, models.NotificationLike)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepository()

	s := &models.RefreshToken{UserID: "u1", TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, r.CreateSession(ctx, s))
	assert.NotZero(t, s.ID)

	got, err := r.GetSessionByHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, got.Usable(time.Now()))

	require.NoError(t, r.RevokeSession(ctx, s.ID, time.Now()))
	assert.ErrorIs(t, r.RevokeSession(ctx, s.ID, time.Now()), repositories.ErrNotFound)

	got, err = r.GetSessionByHash(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, got.Usable(time.Now()))

	_, err = r.GetSessionByHash(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOutsideCallsDoNotSeeOpenTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repos := s.Repositories()

	receiver := primitive.NewObjectID()
	note := &models.Notification{Type: models.NotificationLike, Post: primitive.NewObjectID(), Receivers: []primitive.ObjectID{receiver}}
	require.NoError(t, repos.Notifications.CreateNotification(ctx, note))

	inside, release := make(chan struct{}), make(chan struct{})
	post := &models.Post{Owner: receiver, Body: "draft"}
	txDone := make(chan error, 1)
	go func() {
		txDone <- repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := repos.Posts.CreatePost(ctx, post); err != nil {
				return err
			}
			close(inside)
			<-release
			return errors.New("abort")
		})
	}()
	<-inside

	assert.Zero(t, s.Count(CollectionPosts))
	_, err := repos.Posts.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	owned, err := repos.Posts.GetPostsByOwner(ctx, receiver)
	require.NoError(t, err)
	assert.Empty(t, owned)

	readDone := make(chan error, 1)
	go func() { readDone <- repos.Notifications.MarkAsRead(ctx, note.ID, receiver) }()
	select {
	case <-readDone:
		t.Fatal("write finished while a transaction was open")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.Error(t, <-txDone)
	require.NoError(t, <-readDone)

	stored, err := repos.Notifications.GetByPostAndType(ctx, note.Post, models.NotificationLike)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
	assert.Zero(t, s.Count(CollectionPosts))
}

func TestCommittedTransactionIsVisible(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repos := s.Repositories()

	post := &models.Post{Owner: primitive.NewObjectID(), Body: "hi"}
	require.NoError(t, repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		return repos.Posts.CreatePost(ctx, post)
	}))
	got, err := repos.Posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Body)
}

func TestGetPostsByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	a := &models.Post{Body: "a"}
	b := &models.Post{Body: "b"}
	require.NoError(t, repos.Posts.CreatePost(ctx, a))
	require.NoError(t, repos.Posts.CreatePost(ctx, b))

	posts, err := repos.Posts.GetPostsByIDs(ctx, []primitive.ObjectID{b.ID, primitive.NewObjectID(), a.ID})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].Body)
	assert.Equal(t, "a", posts[1].Body)

	none, err := repos.Posts.GetPostsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
