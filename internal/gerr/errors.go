// Package gerr declares the error kinds shared across the geoprocessing and
// raster analysis engines. Callers classify failures with errors.Is against
// these sentinels; context is attached at the failure site via eris.Wrap.
package gerr

import "github.com/rotisserie/eris"

var (
	// ErrInvalidGeometry marks malformed input geometry: non-closed rings,
	// polygons with fewer than three vertices, unsupported geometry types.
	ErrInvalidGeometry = eris.New("invalid geometry")

	// ErrCrsMismatch marks an operation whose input layers carry different
	// coordinate reference systems. Operations never reproject implicitly.
	ErrCrsMismatch = eris.New("coordinate reference system mismatch")

	// ErrGridMismatch marks raster inputs whose dimensions or affine
	// transforms differ. Resampling is an explicit pre-step, never implied.
	ErrGridMismatch = eris.New("raster grid mismatch")

	// ErrCancelled marks a user-requested abort. Partial results are
	// discarded before this is returned, so it is a clean outcome rather
	// than a corruption hazard.
	ErrCancelled = eris.New("operation cancelled")

	// ErrAdapter marks a failure propagated from an I/O or database
	// collaborator. The wrap chain carries the file or connection it
	// originated from.
	ErrAdapter = eris.New("adapter failure")
)
