package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoCollection creates the indexes the decision log queries rely
// on. The collection itself is created lazily on first insert.
func EnsureMongoCollection(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("trigger_decisions")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "scope", Value: 1}, {Key: "evaluated_at", Value: -1}},
			Options: options.Index().SetName("idx_trigger_decisions_scope_evaluated_at"),
		},
		{
			Keys:    bson.D{{Key: "evaluated_at", Value: -1}},
			Options: options.Index().SetName("idx_trigger_decisions_evaluated_at"),
		},
		{
			Keys:    bson.D{{Key: "should_trigger", Value: 1}, {Key: "evaluated_at", Value: -1}},
			Options: options.Index().SetName("idx_trigger_decisions_should_trigger_evaluated_at"),
		},
		{
			Keys:    bson.D{{Key: "fired_rules.rule_id", Value: 1}},
			Options: options.Index().SetName("idx_trigger_decisions_fired_rule_id"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	return nil
}
