package engine

import (
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLikeAggregationScenario(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	carol := f.signup("carol")
	post := f.post(alice, "hello world", models.AudiencePublic)

	f.like(bob, post.ID, true)
	n := f.notification(post.ID, models.NotificationLike)
	require.NotNil(t, n)
	assert.Equal(t, "bob liked your post", n.Message)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, n.Receivers)
	assert.Equal(t, bob.ID, n.Sender)

	got := f.push.next(t)
	assert.Equal(t, alice.ID.Hex(), got.user)
	assert.Equal(t, EventNotify, got.event)
	payload, ok := got.payload.(models.NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, "bob liked your post", payload.Message)
	assert.Equal(t, models.NotificationLike, payload.Type)

	f.like(carol, post.ID, true)
	n = f.notification(post.ID, models.NotificationLike)
	assert.Equal(t, "carol and 1 others liked your post", n.Message)
	assert.Equal(t, carol.ID, n.Sender)
	assert.Equal(t, carol.ID, f.reload(post.ID).Likes[0].UserID, "most recent liker first")

	f.like(bob, post.ID, false)
	n = f.notification(post.ID, models.NotificationLike)
	require.NotNil(t, n)
	assert.Equal(t, "carol liked your post", n.Message)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, n.Receivers)

	f.like(carol, post.ID, false)
	assert.Nil(t, f.notification(post.ID, models.NotificationLike))
	assert.Empty(t, f.reload(post.ID).Likes)
}

func TestLikeUpdatesReferences(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	post := f.post(alice, "hello", models.AudiencePublic)

	f.like(bob, post.ID, true)
	u := f.user(bob.ID)
	assert.Equal(t, []primitive.ObjectID{post.ID}, u.Likes)
	activity, err := f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityLikePost, Owner: bob.ID, Post: &post.ID})
	require.NoError(t, err)
	assert.Equal(t, activity.ID, u.Activities[0])
	assert.Equal(t, alice.ID, *activity.PostOwner)

	f.like(bob, post.ID, false)
	u = f.user(bob.ID)
	assert.Empty(t, u.Likes)
	assert.NotContains(t, u.Activities, activity.ID)
	_, err = f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityLikePost, Owner: bob.ID, Post: &post.ID})
	assert.Error(t, err)
}

func TestOwnLike(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	post := f.post(alice, "hello", models.AudiencePublic)

	f.like(alice, post.ID, true)
	assert.Equal(t, "You liked your own post", f.notification(post.ID, models.NotificationLike).Message)

	f.like(bob, post.ID, true)
	assert.Equal(t, "bob and 1 others liked your post", f.notification(post.ID, models.NotificationLike).Message)

	f.like(bob, post.ID, false)
	assert.Equal(t, "You liked your own post", f.notification(post.ID, models.NotificationLike).Message)
}

func TestLikeRetryIsRejected(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	post := f.post(alice, "hello", models.AudiencePublic)

	f.like(bob, post.ID, true)
	after := f.mem.Dump()
	writes := f.mem.Writes()

	_, err := f.engine.ToggleLike(f.ctx, bob, post.ID, true)
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, after, f.mem.Dump())
	assert.Equal(t, writes, f.mem.Writes())

	_, err = f.engine.ToggleLike(f.ctx, alice, post.ID, false)
	assert.ErrorIs(t, err, ErrNoChanges, "unliking a post never liked")
}

func TestLikePreconditions(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	private := f.post(alice, "secret", models.AudiencePrivate)

	_, err := f.engine.ToggleLike(f.ctx, bob, private.ID, true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.engine.ToggleLike(f.ctx, alice, private.ID, true)
	assert.NoError(t, err, "owners may like their private posts")

	_, err = f.engine.ToggleLike(f.ctx, bob, primitive.NewObjectID(), true)
	assert.ErrorIs(t, err, ErrNotFound)

	public := f.post(alice, "public", models.AudiencePublic)
	require.NoError(t, f.engine.DeletePost(f.ctx, alice, public.ID))
	_, err = f.engine.ToggleLike(f.ctx, bob, public.ID, true)
	assert.ErrorIs(t, err, ErrNotFound, "deleted posts cannot be liked")
}

func TestUnlikeWithoutActivityAborts(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	post := f.post(alice, "hello", models.AudiencePublic)
	f.like(bob, post.ID, true)

	activity, err := f.repos.Activities.FindActivity(f.ctx, models.ActivityFilter{Type: models.ActivityLikePost, Owner: bob.ID})
	require.NoError(t, err)
	require.NoError(t, f.repos.Activities.DeleteActivity(f.ctx, activity.ID))
	before := f.mem.Dump()

	_, err = f.engine.ToggleLike(f.ctx, bob, post.ID, false)
	assert.ErrorIs(t, err, ErrServerError)
	assert.Equal(t, before, f.mem.Dump())
}

func TestUnlikeRecreatesMissingNotification(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	carol := f.signup("carol")
	post := f.post(alice, "hello", models.AudiencePublic)
	f.like(bob, post.ID, true)
	f.like(carol, post.ID, true)

	n := f.notification(post.ID, models.NotificationLike)
	require.NoError(t, f.repos.Notifications.DeleteNotification(f.ctx, n.ID))

	f.like(carol, post.ID, false)
	n = f.notification(post.ID, models.NotificationLike)
	require.NotNil(t, n)
	assert.Equal(t, "bob liked your post", n.Message)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, n.Receivers)
}
