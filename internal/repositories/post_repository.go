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

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetPostsByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Post, error)
	// GetPostsByIDs returns the posts that still exist; missing ids are skipped.
	GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostsByOwner retrieves every post of a user, newest first
func (r *MongoPostRepository) GetPostsByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Post, error) {
	var posts []models.Post
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := findAll(ctx, r.collection, bson.M{"owner": owner}, &posts, opts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	var posts []models.Post
	if len(ids) == 0 {
		return posts, nil
	}
	if err := findAll(ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}}, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost replaces the stored post document
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	return replaceByID(ctx, r.collection, post.ID, post)
}

// DeletePost hard-deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
