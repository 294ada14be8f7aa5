package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByPostAndType(ctx context.Context, postID primitive.ObjectID, typ models.NotificationType) (*models.Notification, error)
	GetByReceiver(ctx context.Context, receiver primitive.ObjectID, skip, limit int64) ([]models.Notification, error)
	UpdateNotification(ctx context.Context, notification *models.Notification) error
	DeleteNotification(ctx context.Context, id primitive.ObjectID) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, receiver primitive.ObjectID) error
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{collection: db.Collection("notifications")}
}

func (r *mongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = notification.CreatedAt
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

func (r *mongoNotificationRepository) GetByPostAndType(ctx context.Context, postID primitive.ObjectID, typ models.NotificationType) (*models.Notification, error) {
	var n models.Notification
	if err := findOne(ctx, r.collection, bson.M{"post": postID, "notification_type": typ}, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *mongoNotificationRepository) GetByReceiver(ctx context.Context, receiver primitive.ObjectID, skip, limit int64) ([]models.Notification, error) {
	var notifications []models.Notification
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	if err := findAll(ctx, r.collection, bson.M{"receiver": receiver}, &notifications, opts); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) UpdateNotification(ctx context.Context, notification *models.Notification) error {
	notification.UpdatedAt = time.Now()
	return replaceByID(ctx, r.collection, notification.ID, notification)
}

func (r *mongoNotificationRepository) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *mongoNotificationRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"post": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *mongoNotificationRepository) MarkAsRead(ctx context.Context, id, receiver primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "receiver": receiver},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
