// Package config loads the settings of the viewer and the meshing service.
// Values are resolved in order: defaults, then an optional YAML file, then
// environment variables (ISOVIZ_ prefix, e.g. ISOVIZ_SERVER_ADDR).
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/coalesce"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ISOVIZ"

// Config is the complete configuration.
type Config struct {
	Viewer ViewerConfig `yaml:"viewer" env:"VIEWER"`
	Server ServerConfig `yaml:"server" env:"SERVER"`
	Mesher MesherConfig `yaml:"mesher" env:"MESHER"`
	Cache  CacheConfig  `yaml:"cache" env:"CACHE"`
	Log    LogConfig    `yaml:"log" env:"LOG"`
}

// ViewerConfig configures the desktop viewer.
type ViewerConfig struct {
	// Endpoint is the meshing service URL.
	Endpoint       string        `yaml:"endpoint" env:"ENDPOINT"`
	FormulaDelay   time.Duration `yaml:"formula_delay" env:"FORMULA_DELAY"`
	LimitsDelay    time.Duration `yaml:"limits_delay" env:"LIMITS_DELAY"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	BootstrapFile  string        `yaml:"bootstrap_file" env:"BOOTSTRAP_FILE"`
	FrameRate      int           `yaml:"frame_rate" env:"FRAME_RATE"`
}

// ServerConfig configures the meshing service.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// RateLimit is the sustained requests per second allowed per client.
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
	RateBurst int     `yaml:"rate_burst" env:"RATE_BURST"`
	// AllowedOrigins for CORS; "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// MesherConfig configures the meshing kernel.
type MesherConfig struct {
	MarchingCubesCells int           `yaml:"marching_cubes_cells" env:"MARCHING_CUBES_CELLS"`
	DualContourCells   int           `yaml:"dual_contour_cells" env:"DUAL_CONTOUR_CELLS"`
	MaxTriangles       int           `yaml:"max_triangles" env:"MAX_TRIANGLES"`
	Timeout            time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// CacheConfig configures the mesh cache. An empty RedisAddr disables it.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	Password  string        `yaml:"password" env:"PASSWORD"`
	DB        int           `yaml:"db" env:"DB"`
	TTL       time.Duration `yaml:"ttl" env:"TTL"`
	Prefix    string        `yaml:"prefix" env:"PREFIX"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string   `yaml:"level" env:"LEVEL"`
	Format      string   `yaml:"format" env:"FORMAT"` // json or console
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Endpoint:       "http://127.0.0.1:5000/meshing",
			FormulaDelay:   coalesce.FormulaDelay,
			LimitsDelay:    coalesce.LimitsDelay,
			RequestTimeout: 60 * time.Second,
			BootstrapFile:  "sphere.obj",
			FrameRate:      30,
		},
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       5,
			RateBurst:       10,
			AllowedOrigins:  []string{"*"},
			MaxBodyBytes:    64 << 10,
		},
		Mesher: MesherConfig{
			MarchingCubesCells: 64,
			DualContourCells:   32,
			MaxTriangles:       400000,
			Timeout:            60 * time.Second,
		},
		Cache: CacheConfig{
			TTL:    24 * time.Hour,
			Prefix: "isoviz:mesh:",
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
	}
}

// Load reads path (if non-empty and present) over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// defaults
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), EnvPrefix, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Viewer.Endpoint == "" {
		errs = append(errs, errors.New("viewer.endpoint is required"))
	}
	if c.Viewer.FormulaDelay < 0 || c.Viewer.LimitsDelay < 0 {
		errs = append(errs, errors.New("viewer delays must not be negative"))
	}
	if c.Viewer.RequestTimeout <= 0 {
		errs = append(errs, errors.New("viewer.request_timeout must be positive"))
	}
	if c.Viewer.FrameRate <= 0 {
		errs = append(errs, errors.New("viewer.frame_rate must be positive"))
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		errs = append(errs, errors.New("server rate limit and burst must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Mesher.MarchingCubesCells < 8 || c.Mesher.DualContourCells < 8 {
		errs = append(errs, errors.New("mesher cell counts must be at least 8"))
	}
	if c.Mesher.MaxTriangles <= 0 {
		errs = append(errs, errors.New("mesher.max_triangles must be positive"))
	}
	if c.Mesher.Timeout <= 0 {
		errs = append(errs, errors.New("mesher.timeout must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// setFieldsFromEnv walks v and overrides every field tagged env whose
// PREFIX_TAG variable is set. Nested structs extend the prefix.
func setFieldsFromEnv(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, key, lookup); err != nil {
				return err
			}
			continue
		}

		value, ok := lookup(key)
		if !ok || value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
