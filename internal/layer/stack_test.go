package layer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVector(t *testing.T, name string) *VectorLayer {
	t.Helper()
	l, err := NewVectorLayer(name, WGS84, Schema{}, []Feature{
		{Geometry: testPolygon(0, 0, 1), Attrs: nil},
	})
	require.NoError(t, err)
	return l
}

func testRaster(t *testing.T, name string) *RasterLayer {
	t.Helper()
	r, err := NewRasterLayer(name, WGS84, 2, 2, northUp(0, 2, 1), []*Band{{Data: make([]float64, 4)}})
	require.NoError(t, err)
	return r
}

func TestLayerStack_AddDefaultStyles(t *testing.T) {
	s := NewLayerStack()

	vid := s.Add(testVector(t, "v"))
	rid := s.Add(testRaster(t, "r"))
	assert.Equal(t, 2, s.Len())

	ve, ok := s.Get(vid)
	require.True(t, ok)
	require.NotNil(t, ve.Style.Vector)
	assert.Nil(t, ve.Style.Raster)
	assert.True(t, ve.Visible)

	re, ok := s.Get(rid)
	require.True(t, ok)
	require.NotNil(t, re.Style.Raster)
	assert.Nil(t, re.Style.Vector)
	assert.Equal(t, 1.0, re.Style.Raster.Opacity)
}

func TestLayerStack_Remove(t *testing.T) {
	s := NewLayerStack()
	id := s.Add(testVector(t, "v"))

	assert.True(t, s.Remove(id))
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Remove(id))
	assert.False(t, s.Remove(uuid.New()))
}

func TestLayerStack_SetVisible(t *testing.T) {
	s := NewLayerStack()
	id := s.Add(testVector(t, "v"))

	require.True(t, s.SetVisible(id, false))
	e, _ := s.Get(id)
	assert.False(t, e.Visible)

	assert.False(t, s.SetVisible(uuid.New(), true))
}

func TestLayerStack_SetStyle(t *testing.T) {
	s := NewLayerStack()
	id := s.Add(testVector(t, "v"))

	style := Style{Vector: &VectorStyle{StrokeWidth: 3}}
	require.True(t, s.SetStyle(id, style))
	e, _ := s.Get(id)
	assert.Equal(t, 3.0, e.Style.Vector.StrokeWidth)
}

func TestLayerStack_FindTopmost(t *testing.T) {
	s := NewLayerStack()
	s.Add(testVector(t, "dup"))
	top := s.Add(testRaster(t, "dup"))

	e, ok := s.Find("dup")
	require.True(t, ok)
	assert.Equal(t, top, e.ID)

	_, ok = s.Find("missing")
	assert.False(t, ok)
}

func TestLayerStack_SnapshotIsCopy(t *testing.T) {
	s := NewLayerStack()
	id := s.Add(testVector(t, "v"))

	entries, rev := s.Snapshot()
	require.Len(t, entries, 1)

	s.Remove(id)
	assert.Len(t, entries, 1)

	_, rev2 := s.Snapshot()
	assert.Greater(t, rev2, rev)
}

func TestLayerStack_RevisionBumpsOnMutation(t *testing.T) {
	s := NewLayerStack()
	r0 := s.Revision()

	id := s.Add(testVector(t, "v"))
	r1 := s.Revision()
	assert.Greater(t, r1, r0)

	s.SetVisible(id, false)
	r2 := s.Revision()
	assert.Greater(t, r2, r1)

	// Failed mutations leave the revision alone.
	s.SetVisible(uuid.New(), false)
	assert.Equal(t, r2, s.Revision())
}
