package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Collection names
const (
	CollectionProperties  = "properties"
	CollectionUsers       = "users"
	CollectionMessages    = "messages"
	CollectionCredentials = "credentials"
)

// Document is a stored record: its id and its field data
type Document struct {
	ID   string
	Data map[string]any
}

// Equality constrains a (possibly dotted) field to an exact value. With
// Contains set the field is an array and one of its elements must equal Value.
type Equality struct {
	Field    string
	Value    any
	Contains bool
}

// RangeOp is a comparison used by range fetches
type RangeOp string

const (
	OpGTE RangeOp = ">="
	OpLTE RangeOp = "<="
	OpGT  RangeOp = ">"
	OpLT  RangeOp = "<"
)

// Range constrains a numeric field. Several ranges may target the same field.
type Range struct {
	Field string
	Op    RangeOp
	Value float64
}

// DocumentStore is the primitive set every backend offers. Get returns
// (nil, nil) when the document does not exist.
type DocumentStore interface {
	FetchAll(ctx context.Context, collection string) ([]Document, error)
	FetchWhere(ctx context.Context, collection string, eq ...Equality) ([]Document, error)
	FetchRange(ctx context.Context, collection string, ranges ...Range) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Insert(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// VectorIndex is implemented by stores that can keep a feature vector per
// document and answer nearest-neighbour queries.
type VectorIndex interface {
	SetVector(ctx context.Context, collection, id string, vec []float32) error
	Nearest(ctx context.Context, collection, id string, limit int) ([]Document, error)
}

// encodeDocument converts a model value into document data. The id field is
// dropped since it is carried by the document itself.
func encodeDocument(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	delete(data, "id")
	return data, nil
}

// decodeDocument fills out from a stored document
func decodeDocument(doc Document, out any) error {
	data := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = v
	}
	data["id"] = doc.ID
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	return nil
}

// lookupField resolves a dotted field path inside document data
func lookupField(data map[string]any, field string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// toFloat reports the numeric value of a decoded field
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

func matchesEquality(data map[string]any, e Equality) bool {
	v, ok := lookupField(data, e.Field)
	if !ok {
		return false
	}
	if !e.Contains {
		return valuesEqual(v, e.Value)
	}
	elems, ok := v.([]any)
	if !ok {
		return false
	}
	for _, elem := range elems {
		if valuesEqual(elem, e.Value) {
			return true
		}
	}
	return false
}

func matchesRange(data map[string]any, r Range) bool {
	v, ok := lookupField(data, r.Field)
	if !ok {
		return false
	}
	f, ok := toFloat(v)
	if !ok {
		return false
	}
	switch r.Op {
	case OpGTE:
		return f >= r.Value
	case OpLTE:
		return f <= r.Value
	case OpGT:
		return f > r.Value
	case OpLT:
		return f < r.Value
	}
	return false
}

// nestFields turns dotted equality fields into a nested object, used for
// containment queries. An array holding the value contains a Contains match.
func nestFields(eq []Equality) map[string]any {
	out := map[string]any{}
	for _, e := range eq {
		parts := strings.Split(e.Field, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		if e.Contains {
			cur[parts[len(parts)-1]] = []any{e.Value}
		} else {
			cur[parts[len(parts)-1]] = e.Value
		}
	}
	return out
}
