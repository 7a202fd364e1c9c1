package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/eugenenazirov/load-planner/internal/calculation"
	"github.com/eugenenazirov/load-planner/internal/packing"
)

func TestRecordDocumentBSON(t *testing.T) {
	t.Parallel()

	rec := sampleRecord("doc-1", "Berlin", calculation.StatusShipped)
	rec.CreatedAt = time.Date(2024, 5, 1, 9, 0, 0, 123456789, time.UTC)
	rec.Result.Containers = []calculation.ContainerReport{{
		Index:       1,
		Utilization: 42.5,
		Groups: []packing.ItemGroup{{
			Item:      packing.ItemType{ID: "laptop", Length: 0.4, Width: 0.3, Height: 0.1, Weight: 2.5},
			Count:     2,
			Positions: []packing.Position{{}, {X: 0.4}},
		}},
	}}

	data, err := bson.Marshal(toDocument(rec))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var doc recordDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := fromDocument(doc)

	if got.ID != rec.ID || got.Status != calculation.StatusShipped || got.ContainerTypeID != "small-van" {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt.Truncate(time.Millisecond)) {
		t.Fatalf("expected millisecond timestamp, got %v", got.CreatedAt)
	}
	if len(got.Result.Containers) != 1 || got.Result.Containers[0].Groups[0].Positions[1].X != 0.4 {
		t.Fatalf("nested result lost: %+v", got.Result)
	}
}

// TestMongoStorage runs against a live server when LOAD_PLANNER_MONGO_URI is set.
func TestMongoStorage(t *testing.T) {
	uri := os.Getenv("LOAD_PLANNER_MONGO_URI")
	if uri == "" {
		t.Skip("LOAD_PLANNER_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewMongoStorage(ctx, uri, "load_planner_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() {
		_ = store.coll.Database().Drop(context.Background())
		_ = store.Close(context.Background())
	}()

	rec := sampleRecord(uuid.NewString(), "Berlin", calculation.StatusPlanned)
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, rec); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	rec.Status = calculation.StatusShipped
	if err := store.Update(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != calculation.StatusShipped {
		t.Fatalf("expected shipped, got %s", got.Status)
	}

	planned, err := store.FindByLabel(ctx, "Berlin", calculation.StatusPlanned)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(planned) != 0 {
		t.Fatalf("expected no planned records, got %d", len(planned))
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, calculation.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
