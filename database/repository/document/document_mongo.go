package documentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medbook/database"
	"medbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocumentRepo keeps both document kinds in one collection keyed by (kind, id).
type MongoDocumentRepo struct {
	coll *mongo.Collection
}

func NewMongoDocumentRepo(db *mongo.Database) *MongoDocumentRepo {
	return &MongoDocumentRepo{coll: db.Collection("booking_documents")}
}

func (r *MongoDocumentRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "kind", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create document indexes: %w", err)
	}
	return nil
}

func (r *MongoDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create %s document: %w", doc.Kind, err)
	}
	return nil
}

func (r *MongoDocumentRepo) GetByID(ctx context.Context, kind models.DocumentKind, id string) (*models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "kind": kind, "deleted_at": bson.M{"$exists": false}}
	var doc models.Document
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch %s document %s: %w", kind, id, err)
	}
	return &doc, nil
}

func (r *MongoDocumentRepo) ListByBooking(ctx context.Context, bookingID string, kind models.DocumentKind) ([]models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"booking_id": bookingID, "kind": kind, "deleted_at": bson.M{"$exists": false}}
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s documents: %w", kind, err)
	}
	defer cursor.Close(ctx)

	docs := []models.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s documents: %w", kind, err)
	}
	return docs, nil
}

func (r *MongoDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.ReplaceOne(ctx, bson.M{"id": doc.ID, "kind": doc.Kind}, doc)
	if err != nil {
		return fmt.Errorf("failed to update %s document %s: %w", doc.Kind, doc.ID, err)
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *MongoDocumentRepo) Delete(ctx context.Context, kind models.DocumentKind, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "kind": kind})
	if err != nil {
		return fmt.Errorf("failed to delete %s document %s: %w", kind, id, err)
	}
	if result.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
