package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/repository"
)

// CreatePlant saves a new plant and returns its id.
func (r *MongoDBRepository) CreatePlant(ctx context.Context, p models.Plant) (string, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}
	p.ID = r.newID()
	p.CreatedAt = r.now().UTC()

	if _, err := r.collection(plantsCollection).InsertOne(ctx, p); err != nil {
		return "", fmt.Errorf("failed to insert plant: %w", err)
	}
	return p.ID, nil
}

// GetPlant returns one of the owner's plants.
func (r *MongoDBRepository) GetPlant(ctx context.Context, ownerID, id string) (models.Plant, error) {
	var p models.Plant
	err := r.collection(plantsCollection).FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Plant{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Plant{}, fmt.Errorf("failed to load plant %s: %w", id, err)
	}
	return p, nil
}

// ListPlants returns the owner's plants ordered by creation time.
func (r *MongoDBRepository) ListPlants(ctx context.Context, ownerID string) ([]models.Plant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.collection(plantsCollection).Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query plants: %w", err)
	}

	plants := make([]models.Plant, 0)
	if err := cur.All(ctx, &plants); err != nil {
		return nil, fmt.Errorf("failed to decode plants: %w", err)
	}
	return plants, nil
}

// UpdatePlant applies an edit and returns the stored result.
func (r *MongoDBRepository) UpdatePlant(ctx context.Context, ownerID, id string, update models.PlantUpdate) (models.Plant, error) {
	p, err := r.GetPlant(ctx, ownerID, id)
	if err != nil {
		return models.Plant{}, err
	}
	update.Apply(&p)
	if err := p.Validate(); err != nil {
		return models.Plant{}, err
	}

	set := bson.M{"name": p.Name, "groupId": p.GroupID, "categoryId": p.Category, "variety": p.Variety}
	res, err := r.collection(plantsCollection).UpdateOne(ctx, bson.M{"_id": id, "ownerId": ownerID}, bson.M{"$set": set})
	if err != nil {
		return models.Plant{}, fmt.Errorf("failed to update plant %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.Plant{}, repository.ErrNotFound
	}
	return p, nil
}

// DeletePlant removes a plant. Activities that reference it are left as is.
func (r *MongoDBRepository) DeletePlant(ctx context.Context, ownerID, id string) error {
	res, err := r.collection(plantsCollection).DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete plant %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RecategorizePlants moves every plant whose category equals from, ignoring
// case, to the category to.
func (r *MongoDBRepository) RecategorizePlants(ctx context.Context, ownerID, from, to string) (int, error) {
	filter := bson.M{
		"ownerId":    ownerID,
		"categoryId": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(from)) + "$", Options: "i"},
	}
	res, err := r.collection(plantsCollection).UpdateMany(ctx, filter, bson.M{"$set": bson.M{"categoryId": strings.TrimSpace(to)}})
	if err != nil {
		return 0, fmt.Errorf("failed to recategorize plants: %w", err)
	}
	return int(res.ModifiedCount), nil
}

// SubscribePlants streams the owner's full plant set on every change.
func (r *MongoDBRepository) SubscribePlants(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Plant], error) {
	return watchOwner(ctx, r.collection(plantsCollection), "ownerId", ownerID, func(ctx context.Context) ([]models.Plant, error) {
		return r.ListPlants(ctx, ownerID)
	}, r.logger)
}
