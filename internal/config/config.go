package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/FloatCam/internal/logic/geometry"
)

// Environment variables that override values from the YAML file.
const (
	EnvStorageRoot = "FLOATCAM_STORAGE_ROOT"
	EnvDebugLevel  = "FLOATCAM_DEBUG_LEVEL"
)

// MaxTickHz bounds defaults.tick_hz so the tick interval stays non-zero.
const MaxTickHz = 1000

// Vec3Config is a position in world units.
type Vec3Config struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// StorageConfig locates the persistent photo directory.
type StorageConfig struct {
	Root string `yaml:"root"` // flat directory holding photo_*.png / photo_*.txt pairs
}

// CameraConfig describes the virtual camera rig.
type CameraConfig struct {
	FOVDeg       float64    `yaml:"fov_deg"`                // initial vertical field of view
	MinFOVDeg    float64    `yaml:"min_fov_deg"`            // zoom limit (telephoto)
	MaxFOVDeg    float64    `yaml:"max_fov_deg"`            // zoom limit (wide)
	ZoomSpeedDeg float64    `yaml:"zoom_speed_deg_per_sec"` // FOV change per second at full zoom input
	NearClip     float64    `yaml:"near_clip"`
	FarClip      float64    `yaml:"far_clip"`
	Position     Vec3Config `yaml:"position"`
	YawDeg       float64    `yaml:"yaw_deg"`   // rotation around Y, 0 looks down +Z
	PitchDeg     float64    `yaml:"pitch_deg"` // positive looks up
}

// LensConfig is optional: when both values are set, the initial FOV is derived
// from a physical focal length instead of camera.fov_deg.
type LensConfig struct {
	Name           string  `yaml:"name"`
	FocalLengthMm  float64 `yaml:"focal_length_mm"`
	SensorHeightMm float64 `yaml:"sensor_height_mm"`
	SensorWidthMm  float64 `yaml:"sensor_width_mm"` // used when sensor_height_mm is unset
}

// RenderConfig is the size of the render surface the camera reads back.
type RenderConfig struct {
	WidthPx  int `yaml:"width_px"`
	HeightPx int `yaml:"height_px"`
}

// AlbumConfig holds the album paging parameters.
type AlbumConfig struct {
	InputCooldownMs int     `yaml:"input_cooldown_ms"` // debounce between two page changes
	PageThreshold   float64 `yaml:"page_threshold"`    // stick deflection that pages (0-1)
	TextureMaxPx    int     `yaml:"texture_max_px"`    // decoded photos are bounded to this size
}

// MessageConfig holds transient message parameters.
type MessageConfig struct {
	DisplayMs int `yaml:"display_ms"`
}

// SceneConfig points at the YAML file listing taggable objects.
type SceneConfig struct {
	File string `yaml:"file"` // optional; empty means an empty scene
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	TickHz     int `yaml:"tick_hz"`     // frame rate of the session loop
	DebugLevel int `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
}

// Config aggregates all application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Camera   CameraConfig   `yaml:"camera"`
	Lens     *LensConfig    `yaml:"lens,omitempty"` // optional
	Render   RenderConfig   `yaml:"render"`
	Album    AlbumConfig    `yaml:"album"`
	Messages MessageConfig  `yaml:"messages"`
	Scene    SceneConfig    `yaml:"scene"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath checks that path names a .yaml file located directly
// inside a directory called "configs", without any ".." component.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set are left untouched.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Default returns a configuration with every field set to its default value.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvStorageRoot)); v != "" {
		cfg.Storage.Root = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebugLevel)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebugLevel, err)
		}
		cfg.Defaults.DebugLevel = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "photos"
	}
	if cfg.Camera.MinFOVDeg <= 0 {
		cfg.Camera.MinFOVDeg = 20
	}
	if cfg.Camera.MaxFOVDeg <= 0 {
		cfg.Camera.MaxFOVDeg = 80
	}
	if cfg.Camera.FOVDeg <= 0 {
		cfg.Camera.FOVDeg = 60
	}
	if cfg.Camera.ZoomSpeedDeg <= 0 {
		cfg.Camera.ZoomSpeedDeg = 30
	}
	if cfg.Camera.NearClip <= 0 {
		cfg.Camera.NearClip = 0.3
	}
	if cfg.Camera.FarClip <= 0 {
		cfg.Camera.FarClip = 1000
	}
	if cfg.Render.WidthPx <= 0 {
		cfg.Render.WidthPx = 1024
	}
	if cfg.Render.HeightPx <= 0 {
		cfg.Render.HeightPx = 1024
	}
	if cfg.Album.InputCooldownMs <= 0 {
		cfg.Album.InputCooldownMs = 500
	}
	if cfg.Album.PageThreshold <= 0 {
		cfg.Album.PageThreshold = 0.5
	}
	if cfg.Album.TextureMaxPx <= 0 {
		cfg.Album.TextureMaxPx = 2048
	}
	if cfg.Messages.DisplayMs <= 0 {
		cfg.Messages.DisplayMs = 2000
	}
	if cfg.Defaults.TickHz <= 0 {
		cfg.Defaults.TickHz = 72
	}
}

// Validate checks value ranges once defaults have been applied.
func (c *Config) Validate() error {
	cam := c.Camera
	for name, v := range map[string]float64{
		"camera.fov_deg":     cam.FOVDeg,
		"camera.min_fov_deg": cam.MinFOVDeg,
		"camera.max_fov_deg": cam.MaxFOVDeg,
	} {
		if math.IsNaN(v) || v >= 180 {
			return fmt.Errorf("%s must be between 0 and 180, got %.2f", name, v)
		}
	}
	if cam.MinFOVDeg > cam.MaxFOVDeg {
		return fmt.Errorf("camera.min_fov_deg (%.2f) must be <= camera.max_fov_deg (%.2f)", cam.MinFOVDeg, cam.MaxFOVDeg)
	}
	if cam.NearClip >= cam.FarClip {
		return fmt.Errorf("camera.near_clip (%.2f) must be < camera.far_clip (%.2f)", cam.NearClip, cam.FarClip)
	}
	if c.Lens != nil {
		if c.Lens.FocalLengthMm < 0 || c.Lens.SensorHeightMm < 0 || c.Lens.SensorWidthMm < 0 {
			return fmt.Errorf("lens values must be >= 0")
		}
	}
	if c.Album.PageThreshold > 1 {
		return fmt.Errorf("album.page_threshold must be between 0 and 1, got %.2f", c.Album.PageThreshold)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	if c.Defaults.TickHz > MaxTickHz {
		return fmt.Errorf("defaults.tick_hz must be between 1 and %d, got %d", MaxTickHz, c.Defaults.TickHz)
	}
	return nil
}

// InitialFOVDeg returns the vertical FOV the camera starts with. A lens with
// a focal length and a sensor size takes precedence over camera.fov_deg.
// Formula: FOV = 2 × arctan(sensor_size / (2 × focal_length))
// A sensor width gives the horizontal FOV, converted with the render aspect.
func (c *Config) InitialFOVDeg() float64 {
	fov := c.Camera.FOVDeg
	if l := c.Lens; l != nil && l.FocalLengthMm > 0 {
		switch {
		case l.SensorHeightMm > 0:
			fov = lensFOV(l.SensorHeightMm, l.FocalLengthMm)
		case l.SensorWidthMm > 0:
			fov = geometry.VerticalFOV(lensFOV(l.SensorWidthMm, l.FocalLengthMm), c.Aspect())
		}
	}
	return geometry.ClampFOV(fov, c.Camera.MinFOVDeg, c.Camera.MaxFOVDeg)
}

func lensFOV(sensorMm, focalMm float64) float64 {
	return 2.0 * math.Atan(sensorMm/(2.0*focalMm)) * 180.0 / math.Pi
}

// Aspect returns the render surface width/height ratio.
func (c *Config) Aspect() float64 {
	return float64(c.Render.WidthPx) / float64(c.Render.HeightPx)
}

// InputCooldown returns the album paging debounce duration.
func (c *Config) InputCooldown() time.Duration {
	return time.Duration(c.Album.InputCooldownMs) * time.Millisecond
}

// MessageDuration returns how long a transient message stays visible.
func (c *Config) MessageDuration() time.Duration {
	return time.Duration(c.Messages.DisplayMs) * time.Millisecond
}

// TickInterval returns the duration of one session frame.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Defaults.TickHz)
}
