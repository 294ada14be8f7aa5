package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique and lookup indexes the repositories rely
// on. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	byCollection := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"posts": {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"comments": {
			{Keys: bson.D{{Key: "post_id", Value: 1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		"activities": {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"notifications": {
			{Keys: bson.D{{Key: "post", Value: 1}, {Key: "notification_type", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
	}
	for coll, indexes := range byCollection {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Migrate creates or updates the refresh-token table.
func (r *PostgresSessionRepository) Migrate() error {
	return r.db.AutoMigrate(&models.RefreshToken{})
}
