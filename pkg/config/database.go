package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections. Either may be nil: Mongo when the
// memory store is selected, Postgres when no connection string is set.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
}

// InitDB opens the connections the configuration asks for.
func InitDB(cfg *Config) (*DB, error) {
	db := &DB{}

	if cfg.StoreDriver == StoreMongo {
		mongoClient, err := initMongo(cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db.Mongo = mongoClient
	}

	if cfg.PostgresConnStr != "" {
		postgresDB, err := initPostgres(cfg.PostgresConnStr, cfg.IsProduction())
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		db.Postgres = postgresDB
	} else {
		log.Println("POSTGRES_CONN_STR not set, refresh-token sessions are kept in memory.")
	}

	return db, nil
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string, quiet bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if quiet {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(postgres.Open(connStr), gormCfg)
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to PostgreSQL!")
	return db, nil
}

// initMongo initializes the MongoDB connection. Transactions need a replica
// set or sharded cluster.
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Println("Successfully connected to MongoDB!")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			log.Printf("Error getting SQL DB from GORM: %v\n", err)
		} else if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing PostgreSQL connection: %v\n", err)
		} else {
			log.Println("PostgreSQL connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v\n", err)
		} else {
			log.Println("MongoDB connection closed.")
		}
	}
}
