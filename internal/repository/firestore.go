package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
)

// FirestoreStore keeps each collection as a Firestore collection
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore opens the Firestore client of a Firebase app
func NewFirestoreStore(ctx context.Context, app *firebase.App) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

// Close closes the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func snapshotsToDocuments(snaps []*firestore.DocumentSnapshot) []Document {
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs
}

// FetchAll returns every document of a collection
func (s *FirestoreStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return snapshotsToDocuments(snaps), nil
}

// FetchWhere runs a query with one == or array-contains clause per equality
func (s *FirestoreStore) FetchWhere(ctx context.Context, collection string, eq ...Equality) ([]Document, error) {
	q := s.client.Collection(collection).Query
	for _, e := range eq {
		op := "=="
		if e.Contains {
			op = "array-contains"
		}
		q = q.Where(e.Field, op, e.Value)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return snapshotsToDocuments(snaps), nil
}

// FetchRange runs a query with one inequality clause per range
func (s *FirestoreStore) FetchRange(ctx context.Context, collection string, ranges ...Range) ([]Document, error) {
	q := s.client.Collection(collection).Query
	for _, r := range ranges {
		q = q.Where(r.Field, string(r.Op), r.Value)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return snapshotsToDocuments(snaps), nil
}

// Get retrieves a single document by its id
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		// a missing document comes back as NotFound with a non-existent snapshot
		if snap != nil && !snap.Exists() {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

// Insert adds a document with an auto-generated id
func (s *FirestoreStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return ref.ID, nil
}

// Set creates or replaces the document with the given id
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges top-level fields; the document must exist
func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document
func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}
