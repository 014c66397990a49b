package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/kebunku/internal/domain/models"
)

// GetPreferences returns the owner's saved preferences or the defaults.
func (r *MongoDBRepository) GetPreferences(ctx context.Context, ownerID string) (models.Preferences, error) {
	var p models.Preferences
	err := r.collection(preferencesCollection).FindOne(ctx, bson.M{"_id": ownerID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultPreferences(ownerID), nil
	}
	if err != nil {
		return models.Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return p, nil
}

// SavePreferences upserts the owner's preferences.
func (r *MongoDBRepository) SavePreferences(ctx context.Context, p models.Preferences) error {
	if p.OwnerID == "" {
		return models.ErrOwnerRequired
	}
	_, err := r.collection(preferencesCollection).ReplaceOne(ctx, bson.M{"_id": p.OwnerID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
