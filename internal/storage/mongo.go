package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/eugenenazirov/load-planner/internal/calculation"
)

const collectionName = "calculations"

// MongoStorage keeps calculation records in a MongoDB collection.
type MongoStorage struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type recordDocument struct {
	ID              string                    `bson:"_id"`
	Label           string                    `bson:"label"`
	Status          string                    `bson:"status"`
	Lines           []calculation.LineRequest `bson:"lines"`
	ContainerTypeID string                    `bson:"containerTypeId"`
	Result          *calculation.Result       `bson:"result,omitempty"`
	CreatedAt       time.Time                 `bson:"createdAt"`
	UpdatedAt       time.Time                 `bson:"updatedAt"`
}

// NewMongoStorage connects to uri, verifies the connection and ensures the
// label/status index used by FindByLabel exists.
func NewMongoStorage(ctx context.Context, uri, database string) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "label", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create label index: %w", err)
	}

	return &MongoStorage{client: client, coll: coll}, nil
}

// Create inserts a new record.
func (s *MongoStorage) Create(ctx context.Context, rec calculation.Record) error {
	_, err := s.coll.InsertOne(ctx, toDocument(rec))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	return err
}

// Get loads the record with the given id.
func (s *MongoStorage) Get(ctx context.Context, id string) (calculation.Record, error) {
	var doc recordDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return calculation.Record{}, notFound(id)
	}
	if err != nil {
		return calculation.Record{}, fmt.Errorf("find calculation %s: %w", id, err)
	}
	return fromDocument(doc), nil
}

// Update replaces an existing record.
func (s *MongoStorage) Update(ctx context.Context, rec calculation.Record) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, toDocument(rec))
	if err != nil {
		return fmt.Errorf("replace calculation %s: %w", rec.ID, err)
	}
	if res.MatchedCount == 0 {
		return notFound(rec.ID)
	}
	return nil
}

// List returns every record ordered by creation time.
func (s *MongoStorage) List(ctx context.Context) ([]calculation.Record, error) {
	return s.find(ctx, bson.D{})
}

// FindByLabel returns the records with the given label and status ordered by creation time.
func (s *MongoStorage) FindByLabel(ctx context.Context, label string, status calculation.Status) ([]calculation.Record, error) {
	return s.find(ctx, bson.D{{Key: "label", Value: label}, {Key: "status", Value: string(status)}})
}

func (s *MongoStorage) find(ctx context.Context, filter bson.D) ([]calculation.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find calculations: %w", err)
	}

	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode calculations: %w", err)
	}

	out := make([]calculation.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// toDocument truncates timestamps to the millisecond precision BSON stores.
func toDocument(rec calculation.Record) recordDocument {
	return recordDocument{
		ID:              rec.ID,
		Label:           rec.Label,
		Status:          string(rec.Status),
		Lines:           rec.Lines,
		ContainerTypeID: rec.ContainerTypeID,
		Result:          rec.Result,
		CreatedAt:       rec.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt:       rec.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
}

func fromDocument(doc recordDocument) calculation.Record {
	return calculation.Record{
		ID:              doc.ID,
		Label:           doc.Label,
		Status:          calculation.Status(doc.Status),
		Lines:           doc.Lines,
		ContainerTypeID: doc.ContainerTypeID,
		Result:          doc.Result,
		CreatedAt:       doc.CreatedAt.UTC(),
		UpdatedAt:       doc.UpdatedAt.UTC(),
	}
}

var _ calculation.Store = (*MongoStorage)(nil)
