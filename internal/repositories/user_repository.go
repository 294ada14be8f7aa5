package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser assigns an id and timestamps, then inserts the user
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, r.collection, bson.M{"_id": id}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, r.collection, bson.M{"username": username}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, r.collection, bson.M{"email": email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser replaces the stored user document
func (r *MongoUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	return replaceByID(ctx, r.collection, user.ID, user)
}

// DeleteUser hard-deletes a user
func (r *MongoUserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.collection, id)
}
