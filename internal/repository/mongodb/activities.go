package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/repository"
)

// CreateActivity saves a new activity and returns its id.
func (r *MongoDBRepository) CreateActivity(ctx context.Context, a models.Activity) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	a.ID = r.newID()
	a.CreatedAt = r.now().UTC()
	if a.PhotoURLs == nil {
		a.PhotoURLs = []string{}
	}

	if _, err := r.collection(activitiesCollection).InsertOne(ctx, a); err != nil {
		return "", fmt.Errorf("failed to insert activity: %w", err)
	}
	return a.ID, nil
}

// GetActivity returns one of the owner's activities.
func (r *MongoDBRepository) GetActivity(ctx context.Context, ownerID, id string) (models.Activity, error) {
	var a models.Activity
	err := r.collection(activitiesCollection).FindOne(ctx, bson.M{"_id": id, "userId": ownerID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Activity{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to load activity %s: %w", id, err)
	}
	return a, nil
}

// ListActivities returns the owner's activities. The query carries no sort;
// callers order by logical date.
func (r *MongoDBRepository) ListActivities(ctx context.Context, ownerID string) ([]models.Activity, error) {
	return r.findActivities(ctx, bson.M{"userId": ownerID}, nil)
}

// ListActivitiesCreatedBetween returns every owner's activities created in
// [start, end), oldest first.
func (r *MongoDBRepository) ListActivitiesCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Activity, error) {
	filter := bson.M{"createdAt": bson.M{"$gte": start, "$lt": end}}
	return r.findActivities(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *MongoDBRepository) findActivities(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Activity, error) {
	cur, err := r.collection(activitiesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}

	activities := make([]models.Activity, 0)
	if err := cur.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}

// UpdateActivity replaces the mutable fields of an activity.
func (r *MongoDBRepository) UpdateActivity(ctx context.Context, ownerID, id string, a models.Activity) error {
	a.UserID = ownerID
	if err := a.Validate(); err != nil {
		return err
	}
	if a.PhotoURLs == nil {
		a.PhotoURLs = []string{}
	}

	set := bson.M{
		"plantId":     a.PlantID,
		"targetScope": a.TargetScope,
		"targetValue": a.TargetValue,
		"type":        a.Type,
		"productName": a.ProductName,
		"date":        a.Date,
		"description": a.Description,
		"dosis":       a.Dosis,
		"volume":      a.Volume,
		"method":      a.Method,
		"condition":   a.Condition,
		"photoUrl":    a.PhotoURL,
		"photoUrls":   a.PhotoURLs,
	}
	res, err := r.collection(activitiesCollection).UpdateOne(ctx, bson.M{"_id": id, "userId": ownerID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update activity %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteActivity removes an activity.
func (r *MongoDBRepository) DeleteActivity(ctx context.Context, ownerID, id string) error {
	res, err := r.collection(activitiesCollection).DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete activity %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SubscribeActivities streams the owner's full activity set on every change.
func (r *MongoDBRepository) SubscribeActivities(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Activity], error) {
	return watchOwner(ctx, r.collection(activitiesCollection), "userId", ownerID, func(ctx context.Context) ([]models.Activity, error) {
		return r.ListActivities(ctx, ownerID)
	}, r.logger)
}
