package gisio

import (
	"image"
	"image/png"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocore/internal/gerr"
)

// WritePNG encodes a rendered composite or legend strip to a PNG file.
func WritePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(gerr.ErrAdapter, "gisio: create %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := EncodePNG(img, f); err != nil {
		return eris.Wrapf(err, "gisio: write %s", path)
	}
	return nil
}

// EncodePNG writes a PNG to any writer, HTTP responses included.
func EncodePNG(img image.Image, w io.Writer) error {
	return eris.Wrap(png.Encode(w, img), "gisio: encode png")
}
