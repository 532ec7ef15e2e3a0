package mongo

import (
	"context"
	"fmt"

	"composer-quiz/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogLoader reads samples from the "samples" collection, ordered by position then id.
type CatalogLoader struct {
	collection *mongo.Collection
}

func NewCatalogLoader(client *mongo.Client, database string) *CatalogLoader {
	return &CatalogLoader{
		collection: client.Database(database).Collection("samples"),
	}
}

func (l *CatalogLoader) LoadSamples(ctx context.Context) ([]domain.Sample, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := l.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find samples: %w", err)
	}
	defer cursor.Close(ctx)

	var samples []domain.Sample
	if err := cursor.All(ctx, &samples); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	return samples, nil
}

// SeedSamples replaces the collection contents with samples, keeping their order.
func (l *CatalogLoader) SeedSamples(ctx context.Context, samples []domain.Sample) error {
	if _, err := l.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}
	docs := make([]interface{}, len(samples))
	for i, sample := range samples {
		docs[i] = bson.D{
			{Key: "_id", Value: sample.ID},
			{Key: "position", Value: i},
			{Key: "composer", Value: sample.Composer},
			{Key: "uri", Value: sample.URI},
			{Key: "artId", Value: sample.ArtID},
		}
	}
	if _, err := l.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert samples: %w", err)
	}
	return nil
}
