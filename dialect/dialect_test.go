package dialect_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/dialect"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := crudl.Document{
		"name":    "Ada",
		"age":     36.0,
		"at":      at.Format(time.RFC3339Nano),
		"address": map[string]any{"city": "London"},
	}
	tests := []struct {
		name   string
		filter crudl.Document
		want   bool
	}{
		{"empty", nil, true},
		{"equal", crudl.Document{"name": "Ada"}, true},
		{"numbers", crudl.Document{"age": 36}, true},
		{"dates", crudl.Document{"at": at}, true},
		{"nested", crudl.Document{"address": map[string]any{"city": "London"}}, true},
		{"mismatch", crudl.Document{"name": "Grace"}, false},
		{"missing", crudl.Document{"email": "ada@example.com"}, false},
		{"partial", crudl.Document{"name": "Ada", "age": 37}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dialect.Match(doc, tt.filter))
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	dst := crudl.Document{"_id": "1", "name": "Ada", "age": 36.0}
	out := dialect.Merge(dst, crudl.Document{"_id": "1", "age": 37.0})
	assert.Equal(t, crudl.Document{"_id": "1", "name": "Ada", "age": 37.0}, out)
	assert.Equal(t, 36.0, dst["age"])
}

func TestID(t *testing.T) {
	t.Parallel()

	_, err := uuid.Parse(dialect.NewID())
	assert.NoError(t, err)
	assert.NotEqual(t, dialect.NewID(), dialect.NewID())

	id, ok := dialect.ID(crudl.Document{"_id": "abc"})
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
	_, ok = dialect.ID(crudl.Document{"_id": ""})
	assert.False(t, ok)
	_, ok = dialect.ID(crudl.Document{})
	assert.False(t, ok)
}
