// Package config holds the bot configuration as read by viper and checked
// with struct validation before anything starts.
package config

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Bot       BotConfig       `mapstructure:"bot"`
	Screen    ScreenConfig    `mapstructure:"screen"`
	Input     InputConfig     `mapstructure:"input"`
	Patterns  PatternsConfig  `mapstructure:"patterns"`
	Mount     MountConfig     `mapstructure:"mount"`
	Localizer LocalizerConfig `mapstructure:"localizer"`
	Navigator NavigatorConfig `mapstructure:"navigator"`
	Gatherer  GathererConfig  `mapstructure:"gatherer"`
	Watcher   WatcherConfig   `mapstructure:"watcher"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format      string `mapstructure:"format" validate:"oneof=console json"`
	AddSource   bool   `mapstructure:"add_source"`
	ServiceName string `mapstructure:"service_name"`
	LogFile     string `mapstructure:"log_file"`
	MaxSize     int    `mapstructure:"max_size" validate:"gte=0"`
	MaxBackups  int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge      int    `mapstructure:"max_age" validate:"gte=0"`
	Compress    bool   `mapstructure:"compress"`
}

type BotConfig struct {
	Tick         time.Duration `mapstructure:"tick" validate:"gt=0"`
	InitialPhase string        `mapstructure:"initial_phase" validate:"oneof=mounting navigating gathering"`
	Threaded     bool          `mapstructure:"threaded"`
	DryRun       bool          `mapstructure:"dry_run"`
}

type ScreenConfig struct {
	Width  int    `mapstructure:"width" validate:"gt=0"`
	Height int    `mapstructure:"height" validate:"gt=0"`
	Window string `mapstructure:"window"`
	// Replay, when set, reads frames from a directory instead of the window.
	Replay string `mapstructure:"replay"`
	// Region or Polygon crop every capture. Width, Height and all other
	// coordinates are then relative to the crop.
	Region  Box     `mapstructure:"region" validate:"omitempty,len=4"`
	Polygon [][]int `mapstructure:"polygon" validate:"omitempty,min=4,dive,len=2"`
}

// PolygonPoints returns the polygon vertices.
func (s ScreenConfig) PolygonPoints() []image.Point {
	out := make([]image.Point, 0, len(s.Polygon))
	for _, p := range s.Polygon {
		out = append(out, image.Pt(p[0], p[1]))
	}
	return out
}

type InputConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
	Burst    int           `mapstructure:"burst" validate:"gt=0"`
}

type PatternSpec struct {
	Name       string  `mapstructure:"name" validate:"required"`
	File       string  `mapstructure:"file" validate:"required"`
	Confidence float32 `mapstructure:"confidence" validate:"gt=0,lte=1"`
	Scale      float64 `mapstructure:"scale" validate:"gte=0"`
}

type PatternsConfig struct {
	Dir   string        `mapstructure:"dir" validate:"required"`
	Specs []PatternSpec `mapstructure:"specs" validate:"dive"`
}

// Box is a rectangle written as x1, y1, x2, y2.
type Box []int

func (b Box) Rect() image.Rectangle {
	return image.Rect(b[0], b[1], b[2], b[3])
}

type MountConfig struct {
	Key        string        `mapstructure:"key" validate:"required"`
	Hold       time.Duration `mapstructure:"hold" validate:"gte=0"`
	Pause      time.Duration `mapstructure:"pause" validate:"gte=0"`
	Casting    Box           `mapstructure:"casting" validate:"len=4"`
	SkillPanel Box           `mapstructure:"skill_panel" validate:"len=4"`
	CastBar    string        `mapstructure:"cast_bar" validate:"required"`
	Mounted    string        `mapstructure:"mounted" validate:"required"`
}

type LocalizerConfig struct {
	Map    string  `mapstructure:"map" validate:"required"`
	Center []int   `mapstructure:"center" validate:"len=2"`
	Radius int     `mapstructure:"radius" validate:"gt=0"`
	Scale  float64 `mapstructure:"scale" validate:"gt=0"`
	Start  float32 `mapstructure:"start" validate:"gt=0,lte=1"`
	Floor  float32 `mapstructure:"floor" validate:"gt=0,ltefield=Start"`
	Step   float32 `mapstructure:"step" validate:"gt=0"`
}

func (l LocalizerConfig) CenterPoint() image.Point {
	return image.Pt(l.Center[0], l.Center[1])
}

type NavigatorConfig struct {
	Nodes       [][]float64   `mapstructure:"nodes" validate:"min=1,dive,len=2"`
	MinDistance float64       `mapstructure:"min_distance" validate:"gt=0"`
	MaxDistance float64       `mapstructure:"max_distance" validate:"gtfield=MinDistance"`
	Cooldown    time.Duration `mapstructure:"cooldown" validate:"gte=0"`
	OriginSkew  float64       `mapstructure:"origin_skew"`
	AimRadius   float64       `mapstructure:"aim_radius" validate:"gt=0"`
	// Arrivals is how many waypoints the navigate unit reaches before it
	// hands over to the next phase.
	Arrivals int `mapstructure:"arrivals" validate:"gt=0"`
}

type GathererConfig struct {
	// Detector is "dnn" for an ONNX model or "pattern" to reuse reference
	// patterns as targets.
	Detector   string   `mapstructure:"detector" validate:"oneof=dnn pattern"`
	Model      string   `mapstructure:"model" validate:"required_if=Detector dnn"`
	Classes    []string `mapstructure:"classes"`
	Labels     []string `mapstructure:"labels" validate:"min=1"`
	Confidence float32  `mapstructure:"confidence" validate:"gt=0,lte=1"`
	IoU        float64  `mapstructure:"iou" validate:"gt=0,lte=1"`
	CUDA       bool     `mapstructure:"cuda"`
	Cue        string   `mapstructure:"cue"`
	CueRegion  Box      `mapstructure:"cue_region" validate:"omitempty,len=4"`
}

type WatcherConfig struct {
	Key string `mapstructure:"key"`
}

// SetDefaults registers the defaults for a 1920x1080 client.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "gatherbot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	v.SetDefault("bot.tick", "40ms")
	v.SetDefault("bot.initial_phase", "mounting")
	v.SetDefault("bot.threaded", false)
	v.SetDefault("bot.dry_run", false)

	v.SetDefault("screen.width", 1920)
	v.SetDefault("screen.height", 1080)
	v.SetDefault("screen.window", "Albion Online Client")

	v.SetDefault("input.interval", "150ms")
	v.SetDefault("input.burst", 2)

	v.SetDefault("patterns.dir", "patterns")
	v.SetDefault("patterns.specs", []map[string]any{
		{"name": "cast_bar", "file": "cast_bar.1080.png", "confidence": 0.8},
		{"name": "skill_teleport", "file": "skill_teleport.1080.png", "confidence": 0.8},
		{"name": "gathering", "file": "gathering.1080.png", "confidence": 0.8},
		{"name": "ore", "file": "ore.1080.png", "confidence": 0.7},
	})

	v.SetDefault("mount.key", "a")
	v.SetDefault("mount.hold", "50ms")
	v.SetDefault("mount.pause", "300ms")
	v.SetDefault("mount.casting", []int{630, 540, 1255, 780})
	v.SetDefault("mount.skill_panel", []int{475, 960, 1480, 1080})
	v.SetDefault("mount.cast_bar", "cast_bar")
	v.SetDefault("mount.mounted", "skill_teleport")

	v.SetDefault("localizer.map", "patterns/map.png")
	v.SetDefault("localizer.center", []int{1710, 910})
	v.SetDefault("localizer.radius", 65)
	v.SetDefault("localizer.scale", 0.69)
	v.SetDefault("localizer.start", 0.85)
	v.SetDefault("localizer.floor", 0.6)
	v.SetDefault("localizer.step", 0.01)

	v.SetDefault("navigator.nodes", [][]float64{
		{585, 521}, {586, 510}, {590, 501}, {601, 501}, {610, 505},
		{619, 508}, {629, 506}, {619, 515}, {613, 520}, {611, 526},
		{604, 526}, {596, 526}, {590, 525},
	})
	v.SetDefault("navigator.min_distance", 2.0)
	v.SetDefault("navigator.max_distance", 50.0)
	v.SetDefault("navigator.cooldown", "20s")
	v.SetDefault("navigator.origin_skew", 100.0)
	v.SetDefault("navigator.aim_radius", 150.0)
	v.SetDefault("navigator.arrivals", 1)

	v.SetDefault("gatherer.detector", "pattern")
	v.SetDefault("gatherer.model", "")
	v.SetDefault("gatherer.labels", []string{"ore"})
	v.SetDefault("gatherer.confidence", 0.65)
	v.SetDefault("gatherer.iou", 0.45)
	v.SetDefault("gatherer.cue", "gathering")
	v.SetDefault("gatherer.cue_region", []int{630, 540, 1255, 780})

	v.SetDefault("watcher.key", "esc")
}

// Load decodes and validates v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if len(c.Screen.Region) > 0 && len(c.Screen.Polygon) > 0 {
		return errors.New("screen.region and screen.polygon are mutually exclusive")
	}
	if r := c.Screen.Region; len(r) == 4 && (r[2] <= r[0] || r[3] <= r[1]) {
		return fmt.Errorf("screen.region %v is empty", []int(r))
	}
	names := make(map[string]bool, len(c.Patterns.Specs))
	for _, s := range c.Patterns.Specs {
		names[s.Name] = true
	}
	for _, ref := range []string{c.Mount.CastBar, c.Mount.Mounted, c.Gatherer.Cue} {
		if ref != "" && !names[ref] {
			return fmt.Errorf("pattern %q is referenced but not declared in patterns.specs", ref)
		}
	}
	if c.Gatherer.Detector == "pattern" {
		for _, l := range c.Gatherer.Labels {
			if !names[l] {
				return fmt.Errorf("gatherer label %q needs a pattern of the same name", l)
			}
		}
	}
	return nil
}

var envReplacer = strings.NewReplacer(".", "_")

// NewViper returns a viper instance with defaults, the GATHERBOT_ env prefix
// and, if found, the config file. An empty file means ./config.yaml when it
// exists.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("GATHERBOT")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}
