package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geocore/internal/rasteralg"
)

// Config holds the full application configuration.
type Config struct {
	Log         LogConfig             `yaml:"log" mapstructure:"log"`
	Engine      EngineConfig          `yaml:"engine" mapstructure:"engine"`
	Server      ServerConfig          `yaml:"server" mapstructure:"server"`
	Geometry    GeometryConfig        `yaml:"geometry" mapstructure:"geometry"`
	Calibration rasteralg.Calibration `yaml:"calibration" mapstructure:"calibration"`
	Render      RenderConfig          `yaml:"render" mapstructure:"render"`
	Database    DatabaseConfig        `yaml:"database" mapstructure:"database"`
	Project     ProjectConfig         `yaml:"project" mapstructure:"project"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EngineConfig configures the job worker pool.
type EngineConfig struct {
	// Workers bounds how many engine jobs run at once.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Parallelism bounds per-job feature/row fan-out; 0 means GOMAXPROCS.
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// GeometryConfig configures the geometry kernel.
type GeometryConfig struct {
	// Epsilon is the base relative tolerance for geometric predicates.
	Epsilon float64 `yaml:"epsilon" mapstructure:"epsilon"`
}

// RenderConfig configures default composite output dimensions.
type RenderConfig struct {
	Width  int     `yaml:"width" mapstructure:"width"`
	Height int     `yaml:"height" mapstructure:"height"`
	Margin float64 `yaml:"margin" mapstructure:"margin"`
}

// DatabaseConfig configures the PostGIS import source.
type DatabaseConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// ProjectConfig configures project persistence.
type ProjectConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("engine.workers", 2)
	v.SetDefault("engine.parallelism", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("geometry.epsilon", 1e-9)
	v.SetDefault("render.width", 800)
	v.SetDefault("render.height", 600)
	v.SetDefault("render.margin", 0.05)
	v.SetDefault("project.path", "geocore.db")
	v.SetDefault("database.url", "")

	calib := rasteralg.DefaultCalibration()
	v.SetDefault("calibration.scale", calib.Scale)
	v.SetDefault("calibration.offset", calib.Offset)
	v.SetDefault("calibration.emissivity_soil", calib.EmissivitySoil)
	v.SetDefault("calibration.emissivity_vegetation", calib.EmissivityVegetation)
	v.SetDefault("calibration.ndvi_soil", calib.NDVISoil)
	v.SetDefault("calibration.ndvi_vegetation", calib.NDVIVegetation)
	v.SetDefault("calibration.wavelength_m", calib.WavelengthM)
	v.SetDefault("calibration.rho_mk", calib.RhoMK)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
