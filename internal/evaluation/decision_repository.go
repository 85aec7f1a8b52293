package evaluation

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"driftwatch/pkg/models"
)

// DecisionRepository appends decisions to the MongoDB decision log.
// Decisions are immutable; the repository only inserts.
type DecisionRepository interface {
	Insert(ctx context.Context, decision models.TriggerDecision) error
}

type MongoDecisionRepository struct {
	collection *mongo.Collection
}

func NewDecisionRepository(db *mongo.Database) *MongoDecisionRepository {
	return &MongoDecisionRepository{
		collection: db.Collection("trigger_decisions"),
	}
}

func (r *MongoDecisionRepository) Insert(ctx context.Context, decision models.TriggerDecision) error {
	if _, err := r.collection.InsertOne(ctx, decision); err != nil {
		return fmt.Errorf("failed to insert decision %s: %w", decision.ID, err)
	}
	return nil
}
