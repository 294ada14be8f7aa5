package engine

import (
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePost(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")

	post := f.post(alice, "hello", models.AudiencePublic)
	assert.Equal(t, alice.ID, post.Owner)
	assert.Equal(t, models.LifecycleActive, post.State)

	u := f.user(alice.ID)
	assert.Equal(t, []primitive.ObjectID{post.ID}, u.Posts)
	activity, err := f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityNewPost, Post: &post.ID})
	require.NoError(t, err)
	assert.Equal(t, activity.ID, u.Activities[0])

	second := f.post(alice, "again", models.AudiencePrivate)
	assert.Equal(t, []primitive.ObjectID{second.ID, post.ID}, f.user(alice.ID).Posts, "newest first")

	_, err = f.engine.CreatePost(f.ctx, alice, "body", models.Audience("Friends"))
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestReadPost(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	private := f.post(alice, "secret", models.AudiencePrivate)

	_, err := f.engine.Post(f.ctx, bob, private.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := f.engine.Post(f.ctx, alice, private.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Body)
}

func TestUpdatePost(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	post := f.post(alice, "hello", models.AudiencePublic)

	writes := f.mem.Writes()
	_, err := f.engine.UpdatePost(f.ctx, alice, post.ID, models.AudiencePublic)
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, writes, f.mem.Writes())

	_, err = f.engine.UpdatePost(f.ctx, bob, post.ID, models.AudiencePrivate)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.engine.UpdatePost(f.ctx, alice, post.ID, models.Audience("Everyone"))
	assert.ErrorIs(t, err, ErrBadRequest)

	updated, err := f.engine.UpdatePost(f.ctx, alice, post.ID, models.AudiencePrivate)
	require.NoError(t, err)
	assert.Equal(t, models.AudiencePrivate, updated.Audience)
	assert.Equal(t, models.AudiencePrivate, f.reload(post.ID).Audience)
}

func TestDeletePost(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	post := f.post(alice, "hello", models.AudiencePublic)
	f.like(bob, post.ID, true)
	f.comment(bob, post.ID, "hi")

	assert.ErrorIs(t, f.engine.DeletePost(f.ctx, bob, post.ID), ErrForbidden)

	require.NoError(t, f.engine.DeletePost(f.ctx, alice, post.ID))
	stored := f.reload(post.ID)
	assert.Equal(t, models.LifecycleDeactivated, stored.State)
	assert.Equal(t, "hello", stored.Body)
	assert.Empty(t, f.user(alice.ID).Posts)
	assert.Nil(t, f.notification(post.ID, models.NotificationLike))
	assert.Nil(t, f.notification(post.ID, models.NotificationComment))

	activity, err := f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityNewPost, Post: &post.ID})
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleDeactivated, activity.State)

	assert.ErrorIs(t, f.engine.DeletePost(f.ctx, alice, post.ID), ErrNotFound)
	_, err = f.engine.AddComment(f.ctx, bob, post.ID, "too late")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePostWithoutActivity(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	post := f.post(alice, "hello", models.AudiencePublic)

	activity, err := f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityNewPost, Post: &post.ID})
	require.NoError(t, err)
	activity.State = models.LifecycleDeactivated
	require.NoError(t, f.repos.Activities.UpdateActivity(f.ctx, activity))

	assert.ErrorIs(t, f.engine.DeletePost(f.ctx, alice, post.ID), ErrBadRequest)
	assert.Equal(t, models.LifecycleActive, f.reload(post.ID).State)
}

func TestPostComments(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	post := f.post(alice, "hello", models.AudiencePublic)
	first := f.comment(bob, post.ID, "first")
	second := f.comment(alice, post.ID, "second")
	require.NoError(t, f.engine.DeleteComment(f.ctx, bob, first.ID))

	comments, err := f.engine.PostComments(f.ctx, bob, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, second.ID, comments[0].ID)

	private := f.post(alice, "secret", models.AudiencePrivate)
	_, err = f.engine.PostComments(f.ctx, bob, private.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
