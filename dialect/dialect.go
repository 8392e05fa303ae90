package dialect

import (
	"maps"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/crudl"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
	Redis    = "redis"
	Memory   = "memory"
)

// NewID returns a new document identifier.
func NewID() string { return uuid.NewString() }

// ID returns the identifier of doc, if it has one.
func ID(doc crudl.Document) (string, bool) {
	id, ok := doc[crudl.IDField].(string)
	return id, ok && id != ""
}

// Match reports whether doc holds every key of filter with an equal value.
// An empty filter matches every document.
func Match(doc, filter crudl.Document) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(Normalize(got), Normalize(want)) {
			return false
		}
	}
	return true
}

// Merge returns a copy of dst with the keys of src applied on top.
func Merge(dst, src crudl.Document) crudl.Document {
	out := make(crudl.Document, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)
	return out
}

// Normalize converts v to the representation documents take after a round
// trip through a text encoding: numbers become float64, dates RFC 3339
// strings in UTC, and nested maps and slices are converted recursively.
func Normalize(v any) any {
	switch v := v.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case uint:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Normalize(e)
		}
		return out
	case []crudl.Document:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Normalize(e)
		}
		return out
	}
	return v
}
