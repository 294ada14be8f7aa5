package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/aggregate"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateUser stores a new account with its "Join" activity. Username and
// email are stored lowercased and must both be unused.
func (e *Engine) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || passwordHash == "" {
		return nil, ErrBadRequest
	}

	var user *models.User
	err := e.runTx(ctx, "create_user", func(ctx context.Context) error {
		if err := e.unused(ctx, username, email); err != nil {
			return err
		}

		user = &models.User{
			Username:   username,
			Email:      email,
			Password:   passwordHash,
			Visibility: true,
			State:      models.LifecycleActive,
			Posts:      []primitive.ObjectID{},
			Likes:      []primitive.ObjectID{},
			Comments:   []primitive.ObjectID{},
			Activities: []primitive.ObjectID{},
		}
		if err := e.store.Users.CreateUser(ctx, user); err != nil {
			return err
		}

		activity := &models.Activity{Type: models.ActivityJoin, Owner: user.ID, State: models.LifecycleActive}
		if err := e.store.Activities.CreateActivity(ctx, activity); err != nil {
			return err
		}
		user.Activities = prependID(user.Activities, activity.ID)
		return e.store.Users.UpdateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (e *Engine) unused(ctx context.Context, username, email string) error {
	if _, err := e.store.Users.GetUserByUsername(ctx, username); err == nil {
		return ErrBadRequest
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if _, err := e.store.Users.GetUserByEmail(ctx, email); err == nil {
		return ErrBadRequest
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return nil
}

// RecordLogin appends a successful or failed login to the user's activities.
func (e *Engine) RecordLogin(ctx context.Context, userID primitive.ObjectID, success bool) error {
	typ := models.ActivityFailedLogin
	if success {
		typ = models.ActivitySuccessfulLogin
	}
	return e.runTx(ctx, "record_login", func(ctx context.Context) error {
		user, err := e.store.Users.GetUserByID(ctx, userID)
		if err != nil {
			return mapMiss(err, ErrNotFound)
		}
		return e.logActivity(ctx, user, &models.Activity{Type: typ, Owner: user.ID, State: models.LifecycleActive})
	})
}

// UpdateVisibility shows or hides the caller's profile.
func (e *Engine) UpdateVisibility(ctx context.Context, p Principal, visible bool) (*models.User, error) {
	var user *models.User
	err := e.runTx(ctx, "update_visibility", func(ctx context.Context) error {
		var err error
		user, err = e.caller(ctx, p)
		if err != nil {
			return err
		}
		if user.Visibility == visible {
			return ErrNoChanges
		}
		user.Visibility = visible
		return e.store.Users.UpdateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePassword stores a new password hash and logs the change. Checking
// the old password is up to the caller.
func (e *Engine) UpdatePassword(ctx context.Context, p Principal, passwordHash string) error {
	if passwordHash == "" {
		return ErrBadRequest
	}
	return e.runTx(ctx, "update_password", func(ctx context.Context) error {
		user, err := e.caller(ctx, p)
		if err != nil {
			return err
		}
		user.Password = passwordHash
		return e.logActivity(ctx, user, &models.Activity{Type: models.ActivityUpdatePassword, Owner: user.ID, State: models.LifecycleActive})
	})
}

// logActivity creates activity and saves user with it prepended.
func (e *Engine) logActivity(ctx context.Context, user *models.User, activity *models.Activity) error {
	if err := e.store.Activities.CreateActivity(ctx, activity); err != nil {
		return err
	}
	user.Activities = prependID(user.Activities, activity.ID)
	return e.store.Users.UpdateUser(ctx, user)
}

// DeactivateAccount hides the caller and everything they authored: their
// likes on any post, their posts and their comments. Notifications and
// activities are left as they are.
func (e *Engine) DeactivateAccount(ctx context.Context, p Principal) error {
	return e.runTx(ctx, "deactivate_account", func(ctx context.Context) error {
		user, err := e.caller(ctx, p)
		if err != nil {
			return err
		}

		liked, err := e.store.Posts.GetPostsByIDs(ctx, user.Likes)
		if err != nil {
			return err
		}
		for i := range liked {
			post := &liked[i]
			for j := range post.Likes {
				if post.Likes[j].UserID == user.ID {
					post.Likes[j].State = models.LifecycleDeactivated
				}
			}
			if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
				return err
			}
		}

		posts, err := e.store.Posts.GetPostsByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		for i := range posts {
			if !posts[i].State.IsActive() {
				continue
			}
			posts[i].State = models.LifecycleDeactivated
			if err := e.store.Posts.UpdatePost(ctx, &posts[i]); err != nil {
				return err
			}
		}

		comments, err := e.store.Comments.GetCommentsByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		for i := range comments {
			if !comments[i].State.IsActive() {
				continue
			}
			comments[i].State = models.LifecycleDeactivated
			if err := e.store.Comments.UpdateComment(ctx, &comments[i]); err != nil {
				return err
			}
		}

		user.State = models.LifecycleDeactivated
		user.Visibility = false
		return e.store.Users.UpdateUser(ctx, user)
	})
}

// DeleteAccount removes the caller and everything that references them.
// The steps run in order, each re-reading what the previous one changed:
//
//  1. owned posts go, with the comments, like references and notifications
//     hanging off them
//  2. the caller's likes are pulled from the surviving posts
//  3. the caller's comments are pulled from the surviving posts
//  4. the caller's comments and activities are deleted
//  5. the caller is deleted
//
// Refresh-token sessions are revoked once the transaction commits.
func (e *Engine) DeleteAccount(ctx context.Context, p Principal) error {
	err := e.runTx(ctx, "delete_account", func(ctx context.Context) error {
		if _, err := e.store.Users.GetUserByID(ctx, p.ID); err != nil {
			return mapMiss(err, ErrUnauthorized)
		}

		vanished, err := e.purgeOwnedPosts(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := e.pullLikes(ctx, p.ID, vanished); err != nil {
			return err
		}
		if err := e.pullComments(ctx, p.ID, vanished); err != nil {
			return err
		}

		if _, err := e.store.Comments.DeleteCommentsByOwner(ctx, p.ID); err != nil {
			return err
		}
		if _, err := e.store.Activities.DeleteActivitiesByOwner(ctx, p.ID); err != nil {
			return err
		}
		return e.store.Users.DeleteUser(ctx, p.ID)
	})
	if err != nil {
		return err
	}

	if e.sessions != nil {
		if err := e.sessions.RevokeUserSessions(ctx, p.ID.Hex(), time.Now()); err != nil {
			e.log.ErrorContext(ctx, "revoke sessions of deleted account", "user", p.ID.Hex(), "error", err)
		}
	}
	return nil
}

// purgeOwnedPosts hard-deletes every post owned by userID together with the
// comments on it, the references other users hold to it and its
// notifications. It returns the ids of the deleted posts.
func (e *Engine) purgeOwnedPosts(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	posts, err := e.store.Posts.GetPostsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	vanished := make(map[primitive.ObjectID]bool, len(posts))
	for _, post := range posts {
		comments, err := e.store.Comments.GetCommentsByPostID(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range comments {
			if c.Owner != userID {
				if err := e.dropUserRef(ctx, c.Owner, func(u *models.User) {
					u.Comments = removeID(u.Comments, c.ID)
				}); err != nil {
					return nil, err
				}
			}
			if err := e.store.Comments.DeleteComment(ctx, c.ID); err != nil {
				return nil, err
			}
		}

		for _, like := range post.Likes {
			if like.UserID == userID {
				continue
			}
			if err := e.dropUserRef(ctx, like.UserID, func(u *models.User) {
				u.Likes = removeID(u.Likes, post.ID)
			}); err != nil {
				return nil, err
			}
		}

		if _, err := e.store.Notifications.DeleteByPost(ctx, post.ID); err != nil {
			return nil, err
		}
		if err := e.store.Posts.DeletePost(ctx, post.ID); err != nil {
			return nil, err
		}
		vanished[post.ID] = true
	}
	return vanished, nil
}

// dropUserRef edits another user's reference lists. Users already gone are
// skipped.
func (e *Engine) dropUserRef(ctx context.Context, userID primitive.ObjectID, edit func(*models.User)) error {
	user, err := e.store.Users.GetUserByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	edit(user)
	return e.store.Users.UpdateUser(ctx, user)
}

// pullLikes removes userID's like from every surviving post it liked and
// recomputes each post's like notification.
func (e *Engine) pullLikes(ctx context.Context, userID primitive.ObjectID, vanished map[primitive.ObjectID]bool) error {
	user, err := e.store.Users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	actor := aggregate.Actor{ID: user.ID, Username: user.Username}

	for _, postID := range user.Likes {
		if vanished[postID] {
			continue
		}
		post, err := e.store.Posts.GetPostByID(ctx, postID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !post.RemoveLike(userID) {
			continue
		}
		if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
			return err
		}
		if _, err := e.applyNotification(ctx, post.ID, models.NotificationLike, likeRemoved(post, actor)); err != nil {
			return err
		}
	}
	return nil
}

// pullComments removes userID's comments from every surviving post and
// unsubscribes the user from those posts' comment notifications.
func (e *Engine) pullComments(ctx context.Context, userID primitive.ObjectID, vanished map[primitive.ObjectID]bool) error {
	user, err := e.store.Users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	actor := aggregate.Actor{ID: user.ID, Username: user.Username}

	// group by post, keeping first-seen order
	var order []primitive.ObjectID
	byPost := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, commentID := range user.Comments {
		c, err := e.store.Comments.GetCommentByID(ctx, commentID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if vanished[c.PostID] {
			continue
		}
		if _, seen := byPost[c.PostID]; !seen {
			order = append(order, c.PostID)
		}
		byPost[c.PostID] = append(byPost[c.PostID], c.ID)
	}

	for _, postID := range order {
		post, err := e.store.Posts.GetPostByID(ctx, postID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		for _, id := range byPost[postID] {
			post.Comments = removeID(post.Comments, id)
		}
		if err := e.store.Posts.UpdatePost(ctx, post); err != nil {
			return err
		}

		latest, err := e.latestComment(ctx, post)
		if err != nil {
			return err
		}
		_, err = e.applyNotification(ctx, post.ID, models.NotificationComment, aggregate.Event{
			Kind:   aggregate.CommentRemoved,
			Owner:  post.Owner,
			Actor:  actor,
			Count:  len(post.Comments),
			Latest: latest,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
