package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Validate(t *testing.T) {
	s := Schema{
		{Name: "name", Type: FieldString},
		{Name: "pop", Type: FieldInt},
		{Name: "area", Type: FieldFloat},
	}

	tests := []struct {
		name    string
		attrs   []any
		wantErr bool
	}{
		{"valid", []any{"springfield", int64(30000), 12.5}, false},
		{"nil values allowed", []any{nil, nil, nil}, false},
		{"wrong arity", []any{"springfield"}, true},
		{"int where string", []any{int64(1), int64(2), 3.0}, true},
		{"int where float", []any{"x", int64(2), int64(3)}, true},
		{"untyped int rejected", []any{"x", 2, 3.0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.attrs)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchema_FieldIndex(t *testing.T) {
	s := Schema{{Name: "a", Type: FieldString}, {Name: "b", Type: FieldInt}}

	assert.Equal(t, 0, s.FieldIndex("a"))
	assert.Equal(t, 1, s.FieldIndex("b"))
	assert.Equal(t, -1, s.FieldIndex("missing"))
}

func TestSchema_Merge_SuffixesCollisions(t *testing.T) {
	a := Schema{{Name: "name", Type: FieldString}, {Name: "area", Type: FieldFloat}}
	b := Schema{{Name: "name", Type: FieldString}, {Name: "zone", Type: FieldInt}}

	merged := a.Merge(b)
	require.Len(t, merged, 4)
	assert.Equal(t, "name", merged[0].Name)
	assert.Equal(t, "area", merged[1].Name)
	assert.Equal(t, "name_2", merged[2].Name)
	assert.Equal(t, "zone", merged[3].Name)
}

func TestCRS_Equal(t *testing.T) {
	assert.True(t, WGS84.Equal(CRS{Code: "EPSG:4326"}))
	assert.False(t, WGS84.Equal(CRS{Code: "EPSG:3857"}))
	assert.False(t, WGS84.Equal(CRS{}))
	assert.True(t, CRS{}.Equal(CRS{}))
}
