package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

func square(minX, minY, size float64) *geom.Polygon {
	return NewPolygonFromRings([]geom.Coord{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	})
}

func TestSignedArea_Orientation(t *testing.T) {
	ccw := []geom.Coord{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	cw := []geom.Coord{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}

	assert.InDelta(t, 100.0, SignedArea(ccw), 1e-12)
	assert.InDelta(t, -100.0, SignedArea(cw), 1e-12)
}

func TestArea_OrientationIndependent(t *testing.T) {
	ccw := NewPolygonFromRings([]geom.Coord{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}})
	cw := NewPolygonFromRings([]geom.Coord{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}})

	assert.InDelta(t, Area(ccw), Area(cw), 1e-12)
	assert.InDelta(t, 100.0, Area(ccw), 1e-12)
}

func TestArea_SubtractsHoles(t *testing.T) {
	p := NewPolygonFromRings(
		[]geom.Coord{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		[]geom.Coord{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
	)
	assert.InDelta(t, 96.0, Area(p), 1e-12)
}

func TestPointInPolygon(t *testing.T) {
	p := NewPolygonFromRings(
		[]geom.Coord{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		[]geom.Coord{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
	)

	tests := []struct {
		name string
		pt   geom.Coord
		want bool
	}{
		{"interior", geom.Coord{7, 7}, true},
		{"outside", geom.Coord{11, 5}, false},
		{"on boundary", geom.Coord{0, 5}, true},
		{"on vertex", geom.Coord{0, 0}, true},
		{"inside hole", geom.Coord{3, 3}, false},
		{"on hole boundary", geom.Coord{2, 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.pt, p))
		})
	}
}

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		name       string
		a, b, c, d geom.Coord
		want       geom.Coord
		ok         bool
	}{
		{"crossing", geom.Coord{0, 0}, geom.Coord{10, 10}, geom.Coord{0, 10}, geom.Coord{10, 0}, geom.Coord{5, 5}, true},
		{"parallel", geom.Coord{0, 0}, geom.Coord{10, 0}, geom.Coord{0, 1}, geom.Coord{10, 1}, nil, false},
		{"collinear", geom.Coord{0, 0}, geom.Coord{10, 0}, geom.Coord{5, 0}, geom.Coord{15, 0}, nil, false},
		{"disjoint", geom.Coord{0, 0}, geom.Coord{1, 1}, geom.Coord{5, 0}, geom.Coord{5, 10}, nil, false},
		{"touching endpoint", geom.Coord{0, 0}, geom.Coord{5, 5}, geom.Coord{5, 5}, geom.Coord{10, 0}, geom.Coord{5, 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SegmentIntersection(tt.a, tt.b, tt.c, tt.d)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want[0], got[0], 1e-9)
				assert.InDelta(t, tt.want[1], got[1], 1e-9)
			}
		})
	}
}

func TestLength(t *testing.T) {
	ls := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 3, 4, 3, 8})
	assert.InDelta(t, 9.0, Length(ls), 1e-12)
}

func TestValidatePolygon(t *testing.T) {
	require.NoError(t, ValidatePolygon(square(0, 0, 10)))

	open := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{0, 0}, {10, 0}, {10, 10}, {0, 10}}})
	assert.Error(t, ValidatePolygon(open))
}
