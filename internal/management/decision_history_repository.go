package management

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"driftwatch/pkg/models"
)

// DecisionHistoryRepository reads the decision log the evaluator writes.
// The management API only ever queries it, inserts happen elsewhere.
type DecisionHistoryRepository interface {
	ListDecisions(ctx context.Context, filter DecisionHistoryFilter) ([]models.TriggerDecision, error)
	GetDecision(ctx context.Context, id string) (*models.TriggerDecision, error)
}

type mongoDecisionHistoryRepository struct {
	collection *mongo.Collection
}

func NewDecisionHistoryRepository(db *mongo.Database) DecisionHistoryRepository {
	return &mongoDecisionHistoryRepository{
		collection: db.Collection("trigger_decisions"),
	}
}

func (r *mongoDecisionHistoryRepository) ListDecisions(ctx context.Context, filter DecisionHistoryFilter) ([]models.TriggerDecision, error) {
	query := bson.M{}
	if filter.Scope != "" {
		query["scope"] = filter.Scope
	}
	if filter.OnlyTriggered {
		query["should_trigger"] = true
	}

	timeRange := bson.M{}
	if filter.Since != nil {
		timeRange["$gte"] = *filter.Since
	}
	if filter.Until != nil {
		timeRange["$lte"] = *filter.Until
	}
	if len(timeRange) > 0 {
		query["evaluated_at"] = timeRange
	}

	limit := int64(filter.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "evaluated_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer cursor.Close(ctx)

	var decisions []models.TriggerDecision
	if err := cursor.All(ctx, &decisions); err != nil {
		return nil, fmt.Errorf("failed to decode decisions: %w", err)
	}

	return decisions, nil
}

func (r *mongoDecisionHistoryRepository) GetDecision(ctx context.Context, id string) (*models.TriggerDecision, error) {
	var decision models.TriggerDecision
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&decision)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}

	return &decision, nil
}
