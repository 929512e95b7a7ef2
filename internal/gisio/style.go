package gisio

import (
	"fmt"
	"image/color"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geocore/internal/layer"
)

// styleFile is the on-disk YAML shape of a layer style. Colors are hex
// strings ("#RRGGBB" or "#RRGGBBAA"); an empty string means fully
// transparent, matching the engine's no-fill default.
type styleFile struct {
	Vector *vectorStyleFile `yaml:"vector,omitempty"`
	Raster *rasterStyleFile `yaml:"raster,omitempty"`
}

type vectorStyleFile struct {
	Fill        string  `yaml:"fill"`
	Stroke      string  `yaml:"stroke"`
	StrokeWidth float64 `yaml:"stroke_width"`
}

type rasterStyleFile struct {
	Opacity float64        `yaml:"opacity"`
	Ramp    []rampStopFile `yaml:"ramp,omitempty"`
}

type rampStopFile struct {
	Offset float64 `yaml:"offset"`
	Color  string  `yaml:"color"`
}

// LoadStyle reads a YAML style file. Omitted raster ramp falls back to the
// default gradient; omitted opacity means opaque.
func LoadStyle(path string) (layer.Style, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return layer.Style{}, eris.Wrapf(err, "gisio: read style %s", path)
	}
	s, err := ParseStyle(raw)
	if err != nil {
		return layer.Style{}, eris.Wrapf(err, "gisio: style %s", path)
	}
	return s, nil
}

// ParseStyle parses style YAML, the same shape project manifests embed.
func ParseStyle(raw []byte) (layer.Style, error) {
	var sf styleFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return layer.Style{}, eris.Wrap(err, "gisio: parse style")
	}

	var out layer.Style
	if sf.Vector != nil {
		fill, err := ParseHexColor(sf.Vector.Fill)
		if err != nil {
			return layer.Style{}, eris.Wrap(err, "gisio: fill")
		}
		stroke, err := ParseHexColor(sf.Vector.Stroke)
		if err != nil {
			return layer.Style{}, eris.Wrap(err, "gisio: stroke")
		}
		width := sf.Vector.StrokeWidth
		if width <= 0 {
			width = 1
		}
		out.Vector = &layer.VectorStyle{Fill: fill, Stroke: stroke, StrokeWidth: width}
	}
	if sf.Raster != nil {
		rs := &layer.RasterStyle{Opacity: sf.Raster.Opacity}
		if rs.Opacity <= 0 {
			rs.Opacity = 1
		}
		for _, stop := range sf.Raster.Ramp {
			c, err := ParseHexColor(stop.Color)
			if err != nil {
				return layer.Style{}, eris.Wrap(err, "gisio: ramp")
			}
			rs.Ramp = append(rs.Ramp, layer.RampStop{Offset: stop.Offset, Color: c})
		}
		if len(rs.Ramp) == 0 {
			rs.Ramp = layer.DefaultRamp()
		}
		out.Raster = rs
	}
	return out, nil
}

// SaveStyle writes a style as YAML.
func SaveStyle(s layer.Style, path string) error {
	var sf styleFile
	if s.Vector != nil {
		sf.Vector = &vectorStyleFile{
			Fill:        FormatHexColor(s.Vector.Fill),
			Stroke:      FormatHexColor(s.Vector.Stroke),
			StrokeWidth: s.Vector.StrokeWidth,
		}
	}
	if s.Raster != nil {
		sf.Raster = &rasterStyleFile{Opacity: s.Raster.Opacity}
		for _, stop := range s.Raster.Ramp {
			sf.Raster.Ramp = append(sf.Raster.Ramp, rampStopFile{
				Offset: stop.Offset,
				Color:  FormatHexColor(stop.Color),
			})
		}
	}
	raw, err := yaml.Marshal(&sf)
	if err != nil {
		return eris.Wrap(err, "gisio: marshal style")
	}
	return eris.Wrapf(os.WriteFile(path, raw, 0o644), "gisio: write style %s", path)
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA". The empty string is fully
// transparent.
func ParseHexColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{}, nil
	}
	var c color.NRGBA
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return color.NRGBA{}, eris.Errorf("gisio: bad color %q", s)
		}
		c.A = 255
	case 9:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return color.NRGBA{}, eris.Errorf("gisio: bad color %q", s)
		}
	default:
		return color.NRGBA{}, eris.Errorf("gisio: bad color %q", s)
	}
	return c, nil
}

// FormatHexColor renders a color as "#RRGGBB" (opaque) or "#RRGGBBAA".
// The zero color renders as the empty string.
func FormatHexColor(c color.NRGBA) string {
	if c == (color.NRGBA{}) {
		return ""
	}
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
