// Package mongo is the document realization of the storage contract. It keeps
// amounts as integer cents and dates as UTC-midnight timestamps so aggregation
// results match the relational backend exactly.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"expenseintel/internal/storage"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects, pings and ensures the indexes the aggregation pipelines
// depend on.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		disconnect(ctx, client)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		disconnect(ctx, client)
		return nil, err
	}

	slog.Info("Connected to MongoDB store", "database", dbName)
	return s, nil
}

func disconnect(ctx context.Context, client *mongo.Client) {
	if err := client.Disconnect(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to disconnect MongoDB client", "error", err)
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		"expenses": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"pots": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		"categories": {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Expenses() storage.ExpenseRepository {
	return &expenseRepo{coll: s.db.Collection("expenses")}
}

func (s *Store) Users() storage.UserRepository {
	return &userRepo{coll: s.db.Collection("users")}
}

func (s *Store) Pots() storage.PotRepository {
	return &potRepo{coll: s.db.Collection("pots")}
}

func (s *Store) Categories() storage.CategoryRepository {
	return &categoryRepo{coll: s.db.Collection("categories")}
}

// Drop removes the whole database. Test infrastructure only.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
