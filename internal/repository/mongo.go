package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps each collection as a MongoDB collection, keyed by string _id
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var mongoRangeOps = map[RangeOp]string{
	OpGTE: "$gte",
	OpLTE: "$lte",
	OpGT:  "$gt",
	OpLT:  "$lt",
}

// NewMongoStore connects to MongoDB and selects the database
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.M) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		doc, err := rawToDocument(cur.Current)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// rawToDocument goes through relaxed extended JSON so nested values come out
// as plain maps, slices and float64, like every other backend.
func rawToDocument(raw bson.Raw) (Document, error) {
	b, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return Document{}, fmt.Errorf("failed to convert document: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return Document{}, fmt.Errorf("failed to convert document: %w", err)
	}
	id, _ := data["_id"].(string)
	delete(data, "_id")
	return Document{ID: id, Data: data}, nil
}

// FetchAll returns every document of a collection
func (s *MongoStore) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	docs, err := s.find(ctx, collection, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return docs, nil
}

// FetchWhere matches dotted field paths exactly
func (s *MongoStore) FetchWhere(ctx context.Context, collection string, eq ...Equality) ([]Document, error) {
	filter := bson.M{}
	for _, e := range eq {
		if e.Contains {
			filter[e.Field] = bson.M{"$elemMatch": bson.M{"$eq": e.Value}}
			continue
		}
		filter[e.Field] = e.Value
	}
	docs, err := s.find(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return docs, nil
}

// FetchRange combines all ranges on a field into one operator document
func (s *MongoStore) FetchRange(ctx context.Context, collection string, ranges ...Range) ([]Document, error) {
	filter := bson.M{}
	for _, r := range ranges {
		op, ok := mongoRangeOps[r.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported range operator %q", r.Op)
		}
		cond, ok := filter[r.Field].(bson.M)
		if !ok {
			cond = bson.M{}
			filter[r.Field] = cond
		}
		cond[op] = r.Value
	}
	docs, err := s.find(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}
	return docs, nil
}

// Get retrieves a single document by its id
func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	raw, err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	doc, err := rawToDocument(raw)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func withID(id string, data map[string]any) bson.M {
	m := bson.M{"_id": id}
	for k, v := range data {
		m[k] = v
	}
	return m
}

// Insert stores data under a new id
func (s *MongoStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.Collection(collection).InsertOne(ctx, withID(id, data)); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

// Set creates or replaces the document with the given id
func (s *MongoStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, withID(id, data),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges top-level fields into an existing document
func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("document %s/%s does not exist", collection, id)
	}
	return nil
}

// Delete removes a document
func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}
