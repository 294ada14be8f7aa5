package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// ErrNotFound is returned by every repository when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Transactor scopes a unit of work. Repository calls made with the context
// handed to fn take part in the transaction; fn returning an error aborts it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the transaction primitive with the entity repositories that
// share it.
type Store struct {
	Tx            Transactor
	Users         UserRepository
	Posts         PostRepository
	Comments      CommentRepository
	Activities    ActivityRepository
	Notifications NotificationRepository
}

// NewMongoStore wires every Mongo repository against one database.
func NewMongoStore(client *mongo.Client, dbName string) Store {
	db := client.Database(dbName)
	return Store{
		Tx:            NewMongoTransactor(client),
		Users:         NewMongoUserRepository(db),
		Posts:         NewMongoPostRepository(db),
		Comments:      NewMongoCommentRepository(db),
		Activities:    NewMongoActivityRepository(db),
		Notifications: NewMongoNotificationRepository(db),
	}
}

// MongoTransactor runs units of work inside a MongoDB multi-document
// transaction. It never retries: an aborted transaction is returned as is.
type MongoTransactor struct {
	client *mongo.Client
}

func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(txnOpts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		if err := fn(sc); err != nil {
			if abortErr := sc.AbortTransaction(context.Background()); abortErr != nil {
				return errors.Join(err, fmt.Errorf("abort transaction: %w", abortErr))
			}
			return err
		}
		if err := sc.CommitTransaction(sc); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

// findOne decodes a single document and maps a miss to ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}) error {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// findAll decodes every matching document into out (a pointer to a slice).
func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// replaceByID swaps the stored document and maps a miss to ErrNotFound.
func replaceByID(ctx context.Context, coll *mongo.Collection, id interface{}, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id interface{}) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
