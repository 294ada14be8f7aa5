package engine

import (
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDeactivateAccount(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	bob := f.signup("bob")
	alicePost := f.post(alice, "by alice", models.AudiencePublic)
	bobPost := f.post(bob, "by bob", models.AudiencePublic)
	f.like(bob, alicePost.ID, true)
	c := f.comment(bob, alicePost.ID, "hi")
	f.drain()

	likeNote := f.notification(alicePost.ID, models.NotificationLike)

	require.NoError(t, f.engine.DeactivateAccount(f.ctx, bob))

	u := f.user(bob.ID)
	assert.Equal(t, models.LifecycleDeactivated, u.State)
	assert.False(t, u.Visibility)

	liked := f.reload(alicePost.ID)
	require.Len(t, liked.Likes, 1)
	assert.Equal(t, models.LifecycleDeactivated, liked.Likes[0].State)
	assert.Len(t, liked.Comments, 1, "references stay in place")

	assert.Equal(t, models.LifecycleDeactivated, f.reload(bobPost.ID).State)
	stored, err := f.repos.Comments.GetCommentByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleDeactivated, stored.State)

	assert.Equal(t, likeNote, f.notification(alicePost.ID, models.NotificationLike), "notifications untouched")

	_, err = f.engine.AddComment(f.ctx, bob, alicePost.ID, "still here?")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, f.engine.DeactivateAccount(f.ctx, bob), ErrUnauthorized)
}

func TestDeleteAccountReferentialIntegrity(t *testing.T) {
	f := setup(t)
	sessions := memory.NewSessionRepository()
	f.engine.WithSessions(sessions)

	alice := f.signup("alice")
	bob := f.signup("bob")
	carol := f.signup("carol")

	// bob's own post, with activity from others
	bobPost := f.post(bob, "by bob", models.AudiencePublic)
	aliceOnBob := f.comment(alice, bobPost.ID, "alice on bob")
	f.like(carol, bobPost.ID, true)
	f.like(bob, bobPost.ID, true)

	// alice's post, where bob is the latest actor
	alicePost := f.post(alice, "by alice", models.AudiencePublic)
	f.comment(carol, alicePost.ID, "carol on alice")
	bobOnAlice := f.comment(bob, alicePost.ID, "bob on alice")
	f.like(carol, alicePost.ID, true)
	f.like(bob, alicePost.ID, true)

	// carol's post, liked only by bob
	carolPost := f.post(carol, "by carol", models.AudiencePublic)
	f.like(bob, carolPost.ID, true)
	f.drain()

	session := &models.RefreshToken{UserID: bob.ID.Hex(), TokenHash: "bob-token", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, sessions.CreateSession(f.ctx, session))

	require.NoError(t, f.engine.DeleteAccount(f.ctx, bob))

	// bob and everything he authored is gone
	_, err := f.repos.Users.GetUserByID(f.ctx, bob.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = f.repos.Posts.GetPostByID(f.ctx, bobPost.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = f.repos.Comments.GetCommentByID(f.ctx, bobOnAlice.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	owned, err := f.repos.Comments.GetCommentsByOwner(f.ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)
	activities, err := f.repos.Activities.ListActivities(f.ctx, bob.ID, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, activities)

	// comments by others on bob's post are gone too
	_, err = f.repos.Comments.GetCommentByID(f.ctx, aliceOnBob.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.NotContains(t, f.user(alice.ID).Comments, aliceOnBob.ID)
	assert.NotContains(t, f.user(carol.ID).Likes, bobPost.ID)
	assert.Nil(t, f.notification(bobPost.ID, models.NotificationLike))
	assert.Nil(t, f.notification(bobPost.ID, models.NotificationComment))

	// alice's post no longer mentions bob
	ap := f.reload(alicePost.ID)
	assert.False(t, ap.LikedBy(bob.ID))
	assert.NotContains(t, ap.Comments, bobOnAlice.ID)
	assert.Len(t, ap.Comments, 1)

	likeNote := f.notification(alicePost.ID, models.NotificationLike)
	require.NotNil(t, likeNote)
	assert.Equal(t, carol.ID, likeNote.Sender)
	assert.Equal(t, "carol liked your post", likeNote.Message)

	commentNote := f.notification(alicePost.ID, models.NotificationComment)
	require.NotNil(t, commentNote)
	assert.Equal(t, carol.ID, commentNote.Sender)
	assert.Equal(t, []primitive.ObjectID{alice.ID, carol.ID}, commentNote.Receivers)
	assert.Equal(t, `carol commented "carol on alice" on subscribed post.`, commentNote.Message)

	// bob was the only liker of carol's post
	assert.Empty(t, f.reload(carolPost.ID).Likes)
	assert.Nil(t, f.notification(carolPost.ID, models.NotificationLike))

	// no notification anywhere references bob
	for _, user := range []Principal{alice, carol} {
		list, err := f.engine.Notifications(f.ctx, user, 0, 0)
		require.NoError(t, err)
		for _, n := range list {
			assert.NotEqual(t, bob.ID, n.Sender)
			assert.NotContains(t, n.Receivers, bob.ID)
		}
	}
	bobs, err := f.repos.Notifications.GetByReceiver(f.ctx, bob.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	revoked, err := sessions.GetSessionByHash(f.ctx, "bob-token")
	require.NoError(t, err)
	assert.NotNil(t, revoked.RevokedAt)
}

func TestDeleteAccountOfDeactivatedUser(t *testing.T) {
	f := setup(t)
	alice := f.signup("alice")
	f.post(alice, "hello", models.AudiencePublic)

	require.NoError(t, f.engine.DeactivateAccount(f.ctx, alice))
	require.NoError(t, f.engine.DeleteAccount(f.ctx, alice))
	assert.Zero(t, f.mem.Count(memory.CollectionUsers))
	assert.Zero(t, f.mem.Count(memory.CollectionPosts))

	assert.ErrorIs(t, f.engine.DeleteAccount(f.ctx, alice), ErrUnauthorized)
}
