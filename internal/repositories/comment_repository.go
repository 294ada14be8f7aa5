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

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	GetCommentsByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	DeleteCommentsByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *MongoCommentRepository) GetCommentsByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Comment, error) {
	var comments []models.Comment
	if err := findAll(ctx, r.collection, bson.M{"owner": owner}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// GetCommentsByPostID retrieves all comments for a post, oldest first
func (r *MongoCommentRepository) GetCommentsByPostID(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	var comments []models.Comment
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{"post_id": postID}, &comments, opts); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *MongoCommentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now()
	return replaceByID(ctx, r.collection, comment.ID, comment)
}

func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}

func (r *MongoCommentRepository) DeleteCommentsByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
