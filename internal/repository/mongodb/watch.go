package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/repository"
)

// watchOwner opens a change stream on coll and, after the initial load,
// re-reads the owner's full record set whenever a document of theirs changes.
// Deletes carry no owner field, so every delete triggers a reload. The
// channel closes when ctx is done or the stream fails; a failure is
// delivered as a final snapshot with Err set.
func watchOwner[T any](
	ctx context.Context,
	coll *mongo.Collection,
	ownerField, ownerID string,
	load func(context.Context) ([]T, error),
	logger *zap.Logger,
) (<-chan repository.Snapshot[T], error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"fullDocument." + ownerField: ownerID},
			bson.M{"operationType": "delete"},
		}}}},
	}
	stream, err := coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream on %s: %w", coll.Name(), err)
	}

	out := make(chan repository.Snapshot[T], 1)
	go func() {
		defer close(out)
		defer func() {
			if err := stream.Close(context.Background()); err != nil {
				logger.Debug("change stream close failed", zap.String("collection", coll.Name()), zap.Error(err))
			}
		}()

		send := func(s repository.Snapshot[T]) bool {
			select {
			case out <- s:
				return true
			case <-ctx.Done():
				return false
			}
		}

		items, err := load(ctx)
		if !send(repository.Snapshot[T]{Items: items, Err: err}) || err != nil {
			return
		}

		for stream.Next(ctx) {
			items, err := load(ctx)
			if !send(repository.Snapshot[T]{Items: items, Err: err}) || err != nil {
				return
			}
		}

		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
			logger.Error("change stream failed", zap.String("collection", coll.Name()), zap.Error(err))
			send(repository.Snapshot[T]{Err: fmt.Errorf("live feed on %s: %w", coll.Name(), err)})
		}
	}()

	return out, nil
}
