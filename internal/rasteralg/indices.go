package rasteralg

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/layer"
)

// NDVI computes the normalized difference vegetation index
// (NIR − Red) / (NIR + Red). Pixels where the denominator is zero are
// nodata.
func NDVI(ctx context.Context, red, nir BandRef) (*layer.RasterLayer, error) {
	out, err := combine(ctx, "ndvi", nir, red, func(nirV, redV float64) (float64, bool) {
		den := nirV + redV
		if den == 0 {
			return 0, false
		}
		return (nirV - redV) / den, true
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("ndvi complete", zap.Int("width", out.Width), zap.Int("height", out.Height))
	return out, nil
}

// NDBI computes the normalized difference built-up index
// (SWIR − NIR) / (SWIR + NIR).
func NDBI(ctx context.Context, swir, nir BandRef) (*layer.RasterLayer, error) {
	out, err := combine(ctx, "ndbi", swir, nir, func(swirV, nirV float64) (float64, bool) {
		den := swirV + nirV
		if den == 0 {
			return 0, false
		}
		return (swirV - nirV) / den, true
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("ndbi complete", zap.Int("width", out.Width), zap.Int("height", out.Height))
	return out, nil
}

// Calibration holds the sensor constants for the thermal-band conversion.
// The engine never hardcodes a sensor; these are injected configuration.
// The zero value is unusable — start from DefaultCalibration.
type Calibration struct {
	// Scale and Offset convert raw thermal DN to at-sensor brightness
	// temperature in Kelvin: BT = Scale*DN + Offset.
	Scale  float64 `mapstructure:"scale" yaml:"scale"`
	Offset float64 `mapstructure:"offset" yaml:"offset"`

	// Emissivity correction (applied only when an NDVI raster is supplied).
	// Emissivity is interpolated between soil and vegetation endmembers by
	// the NDVI-derived vegetation fraction.
	EmissivitySoil       float64 `mapstructure:"emissivity_soil" yaml:"emissivity_soil"`
	EmissivityVegetation float64 `mapstructure:"emissivity_vegetation" yaml:"emissivity_vegetation"`
	NDVISoil             float64 `mapstructure:"ndvi_soil" yaml:"ndvi_soil"`
	NDVIVegetation       float64 `mapstructure:"ndvi_vegetation" yaml:"ndvi_vegetation"`

	// WavelengthM is the effective sensing wavelength in meters; RhoMK is
	// h*c/k in meter-Kelvin. Both feed the single-channel emissivity term.
	WavelengthM float64 `mapstructure:"wavelength_m" yaml:"wavelength_m"`
	RhoMK       float64 `mapstructure:"rho_mk" yaml:"rho_mk"`
}

// DefaultCalibration returns Landsat Collection 2 surface temperature
// constants and the conventional soil/vegetation emissivity endmembers.
func DefaultCalibration() Calibration {
	return Calibration{
		Scale:                0.00341802,
		Offset:               149.0,
		EmissivitySoil:       0.966,
		EmissivityVegetation: 0.986,
		NDVISoil:             0.2,
		NDVIVegetation:       0.5,
		WavelengthM:          10.895e-6,
		RhoMK:                1.438e-2,
	}
}

const kelvinOffset = 273.15

// LST derives land surface temperature in °C from a thermal band. When
// ndvi is non-nil it must share the thermal raster's grid; the brightness
// temperature is then emissivity-corrected using the NDVI-derived
// vegetation fraction. With a nil ndvi the result is the uncorrected
// brightness temperature.
func LST(ctx context.Context, thermal BandRef, ndvi *layer.RasterLayer, calib Calibration) (*layer.RasterLayer, error) {
	if calib.Scale == 0 {
		return nil, eris.New("rasteralg: calibration scale must be non-zero")
	}
	if ndvi == nil {
		out, err := mapBand(ctx, "lst", thermal, func(dn float64) (float64, bool) {
			return calib.Scale*dn + calib.Offset - kelvinOffset, true
		})
		if err != nil {
			return nil, err
		}
		zap.L().Info("lst complete", zap.Bool("emissivity_corrected", false))
		return out, nil
	}

	out, err := combine(ctx, "lst", thermal, BandRef{Raster: ndvi}, func(dn, ndviV float64) (float64, bool) {
		bt := calib.Scale*dn + calib.Offset
		if bt <= 0 {
			return 0, false
		}
		eps := emissivity(ndviV, calib)
		if eps <= 0 {
			return 0, false
		}
		// Single-channel correction: T = BT / (1 + (λ·BT/ρ)·ln ε).
		den := 1 + (calib.WavelengthM*bt/calib.RhoMK)*math.Log(eps)
		if den == 0 {
			return 0, false
		}
		return bt/den - kelvinOffset, true
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("lst complete", zap.Bool("emissivity_corrected", true))
	return out, nil
}

// emissivity interpolates between the soil and vegetation endmembers by the
// squared NDVI fraction (Carlson–Ripley vegetation proportion).
func emissivity(ndvi float64, c Calibration) float64 {
	switch {
	case ndvi <= c.NDVISoil:
		return c.EmissivitySoil
	case ndvi >= c.NDVIVegetation:
		return c.EmissivityVegetation
	default:
		f := (ndvi - c.NDVISoil) / (c.NDVIVegetation - c.NDVISoil)
		pv := f * f
		return c.EmissivitySoil + (c.EmissivityVegetation-c.EmissivitySoil)*pv
	}
}

// UHI subtracts a baseline LST raster from a target LST raster, producing
// a relative heat-anomaly raster on the shared grid.
func UHI(ctx context.Context, lst, baseline BandRef) (*layer.RasterLayer, error) {
	out, err := combine(ctx, "uhi", lst, baseline, func(t, b float64) (float64, bool) {
		return t - b, true
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("uhi complete", zap.String("baseline", baseline.Raster.Name))
	return out, nil
}

// UHIFromMean uses the scene's own non-nodata mean as the baseline, the
// usual stand-in for a rural reference temperature.
func UHIFromMean(ctx context.Context, lst BandRef) (*layer.RasterLayer, error) {
	mean, ok := BandMean(lst)
	if !ok {
		return nil, eris.Errorf("rasteralg: raster %q has no valid samples to average", lst.Raster.Name)
	}
	out, err := mapBand(ctx, "uhi", lst, func(t float64) (float64, bool) {
		return t - mean, true
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("uhi complete", zap.Float64("baseline_mean", mean))
	return out, nil
}

// Overlay combines LST with NDVI and NDBI into the legacy composite
// heat-island surface: LST − (NDVI + NDBI)/2. All three rasters must share
// one grid.
func Overlay(ctx context.Context, lst, ndvi, ndbi BandRef) (*layer.RasterLayer, error) {
	if err := requireSameGrid(lst, ndvi, ndbi); err != nil {
		return nil, err
	}
	half, err := combine(ctx, "overlay_mean", ndvi, ndbi, func(a, b float64) (float64, bool) {
		return (a + b) / 2, true
	})
	if err != nil {
		return nil, err
	}
	out, err := combine(ctx, "overlay", lst, BandRef{Raster: half}, func(t, m float64) (float64, bool) {
		return t - m, true
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("overlay complete", zap.Int("width", out.Width), zap.Int("height", out.Height))
	return out, nil
}
