package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Canvas is the size the phone-frame template is laid out in.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1920
)

type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"logLevel"`
	Port     int    `yaml:"port"`

	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	Preset       string `yaml:"preset"`
	Codec        string `yaml:"codec"`
	VideoEncoder string `yaml:"videoEncoder"`
	Quality      int    `yaml:"quality"`
	Workers      int    `yaml:"workers"`
	JPEGQuality  int    `yaml:"jpegQuality"`

	PublicDir string `yaml:"publicDir"`
	OutputDir string `yaml:"outputDir"`
	FontPath  string `yaml:"fontPath"`

	Verbose   bool `yaml:"verbose"`
	ShowStats bool `yaml:"showStats"`

	Supabase SupabaseConfig `yaml:"supabase"`
	RedisURL string         `yaml:"redisURL"`

	BuildVersion string `yaml:"-"`
}

type SupabaseConfig struct {
	URL        string `yaml:"url"`
	ServiceKey string `yaml:"serviceKey"`
	Bucket     string `yaml:"bucket"`
}

// Enabled reports whether uploads can be attempted.
func (s SupabaseConfig) Enabled() bool {
	return s.URL != "" && s.ServiceKey != ""
}

// Default returns the built-in settings: 1080x1920 at 30 fps, h264.
func Default() *Config {
	return &Config{
		Env:         "production",
		LogLevel:    "info",
		Port:        3001,
		Width:       CanvasWidth,
		Height:      CanvasHeight,
		FPS:         30,
		Codec:       "h264",
		Workers:     runtime.NumCPU(),
		JPEGQuality: 80,
		PublicDir:   "public",
		OutputDir:   "out",
		ShowStats:   true,
		Supabase:    SupabaseConfig{Bucket: "videos"},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// at path, then .env files and the process environment. A preset, when
// set, replaces the width and height.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// .env files never override variables already set
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", f, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	setString("APP_ENV", &c.Env)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("SUPABASE_URL", &c.Supabase.URL)
	setString("SUPABASE_SERVICE_ROLE_KEY", &c.Supabase.ServiceKey)
	setString("SUPABASE_BUCKET", &c.Supabase.Bucket)
	setString("REDIS_URL", &c.RedisURL)
	setString("PUBLIC_DIR", &c.PublicDir)
	setString("OUTPUT_DIR", &c.OutputDir)
	setString("FONT_PATH", &c.FontPath)

	if err := setInt("PORT", &c.Port); err != nil {
		return err
	}
	if err := setInt("FPS", &c.FPS); err != nil {
		return err
	}
	return setInt("WORKERS", &c.Workers)
}

// Presets maps aspect names onto output sizes.
var Presets = map[string][2]int{
	"9:16":    {1080, 1920},
	"9:16-hd": {720, 1280},
	"4:5":     {1080, 1350},
	"16:9":    {1280, 720},
}

// ApplyPreset sets the output size from a named preset.
func (c *Config) ApplyPreset(name string) error {
	size, ok := Presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	c.Preset = name
	c.Width, c.Height = size[0], size[1]
	return nil
}

// Development reports whether the process runs in development mode.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Env, "development")
}

// DefaultQuality is the quality used for an encoder when none is set.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox", "hevc_videotoolbox":
		return 75 // битрейт Q*100 кбит/с
	case "h264_nvenc", "hevc_nvenc":
		return 28
	case "libx265":
		return 28
	case "libvpx", "libvpx-vp9":
		return 31
	}
	return 23
}

// SegmentOptions are the encode settings of one render.
type SegmentOptions struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
}

// Segment returns the encode settings of c with the quality resolved.
func (c *Config) Segment() SegmentOptions {
	q := c.Quality
	if q <= 0 {
		q = DefaultQuality(c.VideoEncoder)
	}
	return SegmentOptions{Width: c.Width, Height: c.Height, FPS: c.FPS, Encoder: c.VideoEncoder, Quality: q}
}
