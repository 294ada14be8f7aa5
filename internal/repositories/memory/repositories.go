package memory

import (
	"context"
	"sort"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ensureID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

type userRepository struct{ s *Store }

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.s.write(ctx, CollectionUsers, "create", func(t *table) error {
		ensureID(&user.ID)
		user.CreatedAt = time.Now()
		user.UpdatedAt = user.CreatedAt
		return put(t, user.ID, user)
	})
}

func (r *userRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (user *models.User, err error) {
	err = r.s.read(ctx, CollectionUsers, func(t *table) error {
		user, err = get[models.User](t, id)
		return err
	})
	return user, err
}

func (r *userRepository) findOne(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	var found []models.User
	err := r.s.read(ctx, CollectionUsers, func(t *table) (err error) {
		found, err = scan(t, match)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &found[0], nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, func(u *models.User) bool { return u.Username == username })
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, func(u *models.User) bool { return u.Email == email })
}

func (r *userRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.s.write(ctx, CollectionUsers, "update", func(t *table) error {
		if _, ok := t.docs[user.ID]; !ok {
			return repositories.ErrNotFound
		}
		user.UpdatedAt = time.Now()
		return put(t, user.ID, user)
	})
}

func (r *userRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return r.s.write(ctx, CollectionUsers, "delete", func(t *table) error {
		if !t.remove(id) {
			return repositories.ErrNotFound
		}
		return nil
	})
}

type postRepository struct{ s *Store }

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.s.write(ctx, CollectionPosts, "create", func(t *table) error {
		ensureID(&post.ID)
		post.CreatedAt = time.Now()
		post.UpdatedAt = post.CreatedAt
		return put(t, post.ID, post)
	})
}

func (r *postRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (post *models.Post, err error) {
	err = r.s.read(ctx, CollectionPosts, func(t *table) error {
		post, err = get[models.Post](t, id)
		return err
	})
	return post, err
}

func (r *postRepository) GetPostsByOwner(ctx context.Context, owner primitive.ObjectID) (posts []models.Post, err error) {
	err = r.s.read(ctx, CollectionPosts, func(t *table) error {
		posts, err = scan(t, func(p *models.Post) bool { return p.Owner == owner })
		return err
	})
	// newest first, as the Mongo adapter sorts
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	return posts, err
}

func (r *postRepository) GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) (posts []models.Post, err error) {
	err = r.s.read(ctx, CollectionPosts, func(t *table) error {
		for _, id := range ids {
			post, err := get[models.Post](t, id)
			if err == repositories.ErrNotFound {
				continue
			}
			if err != nil {
				return err
			}
			posts = append(posts, *post)
		}
		return nil
	})
	return posts, err
}

func (r *postRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	return r.s.write(ctx, CollectionPosts, "update", func(t *table) error {
		if _, ok := t.docs[post.ID]; !ok {
			return repositories.ErrNotFound
		}
		post.UpdatedAt = time.Now()
		return put(t, post.ID, post)
	})
}

func (r *postRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	return r.s.write(ctx, CollectionPosts, "delete", func(t *table) error {
		if !t.remove(id) {
			return repositories.ErrNotFound
		}
		return nil
	})
}

type commentRepository struct{ s *Store }

func (r *commentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.s.write(ctx, CollectionComments, "create", func(t *table) error {
		ensureID(&comment.ID)
		comment.CreatedAt = time.Now()
		comment.UpdatedAt = comment.CreatedAt
		return put(t, comment.ID, comment)
	})
}

func (r *commentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (comment *models.Comment, err error) {
	err = r.s.read(ctx, CollectionComments, func(t *table) error {
		comment, err = get[models.Comment](t, id)
		return err
	})
	return comment, err
}

func (r *commentRepository) GetCommentsByOwner(ctx context.Context, owner primitive.ObjectID) (comments []models.Comment, err error) {
	err = r.s.read(ctx, CollectionComments, func(t *table) error {
		comments, err = scan(t, func(c *models.Comment) bool { return c.Owner == owner })
		return err
	})
	return comments, err
}

func (r *commentRepository) GetCommentsByPostID(ctx context.Context, postID primitive.ObjectID) (comments []models.Comment, err error) {
	err = r.s.read(ctx, CollectionComments, func(t *table) error {
		comments, err = scan(t, func(c *models.Comment) bool { return c.PostID == postID })
		return err
	})
	return comments, err
}

func (r *commentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	return r.s.write(ctx, CollectionComments, "update", func(t *table) error {
		if _, ok := t.docs[comment.ID]; !ok {
			return repositories.ErrNotFound
		}
		comment.UpdatedAt = time.Now()
		return put(t, comment.ID, comment)
	})
}

func (r *commentRepository) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	return r.s.write(ctx, CollectionComments, "delete", func(t *table) error {
		if !t.remove(id) {
			return repositories.ErrNotFound
		}
		return nil
	})
}

func (r *commentRepository) DeleteCommentsByOwner(ctx context.Context, owner primitive.ObjectID) (n int64, err error) {
	err = r.s.write(ctx, CollectionComments, "delete", func(t *table) error {
		owned, err := scan(t, func(c *models.Comment) bool { return c.Owner == owner })
		if err != nil {
			return err
		}
		for _, c := range owned {
			t.remove(c.ID)
			n++
		}
		return nil
	})
	return n, err
}

type activityRepository struct{ s *Store }

func (r *activityRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	return r.s.write(ctx, CollectionActivities, "create", func(t *table) error {
		ensureID(&activity.ID)
		activity.CreatedAt = time.Now()
		return put(t, activity.ID, activity)
	})
}

func matchActivity(f models.ActivityFilter) func(*models.Activity) bool {
	return func(a *models.Activity) bool {
		switch {
		case f.Type != "" && a.Type != f.Type:
			return false
		case !f.Owner.IsZero() && a.Owner != f.Owner:
			return false
		case f.Post != nil && (a.Post == nil || *a.Post != *f.Post):
			return false
		case f.Comment != nil && (a.Comment == nil || *a.Comment != *f.Comment):
			return false
		case f.Active && !a.State.IsActive():
			return false
		}
		return true
	}
}

func (r *activityRepository) FindActivity(ctx context.Context, f models.ActivityFilter) (*models.Activity, error) {
	var found []models.Activity
	err := r.s.read(ctx, CollectionActivities, func(t *table) (err error) {
		found, err = scan(t, matchActivity(f))
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &found[0], nil
}

func (r *activityRepository) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	return r.s.write(ctx, CollectionActivities, "update", func(t *table) error {
		if _, ok := t.docs[activity.ID]; !ok {
			return repositories.ErrNotFound
		}
		return put(t, activity.ID, activity)
	})
}

func (r *activityRepository) DeleteActivity(ctx context.Context, id primitive.ObjectID) error {
	return r.s.write(ctx, CollectionActivities, "delete", func(t *table) error {
		if !t.remove(id) {
			return repositories.ErrNotFound
		}
		return nil
	})
}

func (r *activityRepository) DeleteActivitiesByOwner(ctx context.Context, owner primitive.ObjectID) (n int64, err error) {
	err = r.s.write(ctx, CollectionActivities, "delete", func(t *table) error {
		owned, err := scan(t, func(a *models.Activity) bool { return a.Owner == owner })
		if err != nil {
			return err
		}
		for _, a := range owned {
			t.remove(a.ID)
			n++
		}
		return nil
	})
	return n, err
}

func (r *activityRepository) ListActivities(ctx context.Context, owner primitive.ObjectID, from, to time.Time) (activities []models.Activity, err error) {
	err = r.s.read(ctx, CollectionActivities, func(t *table) error {
		activities, err = scan(t, func(a *models.Activity) bool {
			return a.Owner == owner && a.State.IsActive() &&
				!a.CreatedAt.Before(from) && !a.CreatedAt.After(to)
		})
		return err
	})
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreatedAt.After(activities[j].CreatedAt)
	})
	return activities, err
}

type notificationRepository struct{ s *Store }

func (r *notificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.s.write(ctx, CollectionNotifications, "create", func(t *table) error {
		ensureID(&n.ID)
		n.CreatedAt = time.Now()
		n.UpdatedAt = n.CreatedAt
		return put(t, n.ID, n)
	})
}

func (r *notificationRepository) GetByPostAndType(ctx context.Context, postID primitive.ObjectID, typ models.NotificationType) (*models.Notification, error) {
	var found []models.Notification
	err := r.s.read(ctx, CollectionNotifications, func(t *table) (err error) {
		found, err = scan(t, func(n *models.Notification) bool { return n.Post == postID && n.Type == typ })
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repositories.ErrNotFound
	}
	return &found[0], nil
}

func (r *notificationRepository) GetByReceiver(ctx context.Context, receiver primitive.ObjectID, skip, limit int64) ([]models.Notification, error) {
	var found []models.Notification
	err := r.s.read(ctx, CollectionNotifications, func(t *table) (err error) {
		found, err = scan(t, func(n *models.Notification) bool { return n.HasReceiver(receiver) })
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].UpdatedAt.After(found[j].UpdatedAt) })
	if skip >= int64(len(found)) {
		return nil, nil
	}
	found = found[skip:]
	if limit > 0 && limit < int64(len(found)) {
		found = found[:limit]
	}
	return found, nil
}

func (r *notificationRepository) UpdateNotification(ctx context.Context, n *models.Notification) error {
	return r.s.write(ctx, CollectionNotifications, "update", func(t *table) error {
		if _, ok := t.docs[n.ID]; !ok {
			return repositories.ErrNotFound
		}
		n.UpdatedAt = time.Now()
		return put(t, n.ID, n)
	})
}

func (r *notificationRepository) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	return r.s.write(ctx, CollectionNotifications, "delete", func(t *table) error {
		if !t.remove(id) {
			return repositories.ErrNotFound
		}
		return nil
	})
}

func (r *notificationRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (n int64, err error) {
	err = r.s.write(ctx, CollectionNotifications, "delete", func(t *table) error {
		matched, err := scan(t, func(x *models.Notification) bool { return x.Post == postID })
		if err != nil {
			return err
		}
		for _, x := range matched {
			t.remove(x.ID)
			n++
		}
		return nil
	})
	return n, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, receiver primitive.ObjectID) error {
	return r.s.write(ctx, CollectionNotifications, "update", func(t *table) error {
		n, err := get[models.Notification](t, id)
		if err != nil {
			return err
		}
		if !n.HasReceiver(receiver) {
			return repositories.ErrNotFound
		}
		n.IsRead = true
		return put(t, n.ID, n)
	})
}
