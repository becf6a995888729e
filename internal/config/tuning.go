package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/motusrehab/motus/internal/motion/profile"
	"github.com/motusrehab/motus/internal/motion/rep"
	"github.com/motusrehab/motus/internal/motion/rom"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for detection tuning.
// All fields are optional; a partial JSON file overrides only what it
// names and the Get* methods supply compiled-in defaults for the rest.
type TuningConfig struct {
	// Session params
	ArmLengthMeters *float64 `json:"arm_length_meters,omitempty"`

	// Arc-length ROM params
	NoiseFloorMeters *float64 `json:"noise_floor_meters,omitempty"`
	MinArcMeters     *float64 `json:"min_arc_meters,omitempty"`

	// Direction-change detector params
	WindowSeconds         *float64 `json:"window_seconds,omitempty"`
	MinDisplacementMeters *float64 `json:"min_displacement_meters,omitempty"`
	Cooldown              *string  `json:"cooldown,omitempty"` // duration string like "300ms"

	// Circular detector params
	CenterBlend     *float64 `json:"center_blend,omitempty"`
	BasisBlend      *float64 `json:"basis_blend,omitempty"`
	MinRadiusMeters *float64 `json:"min_radius_meters,omitempty"`

	// Camera detector params
	MinConfidence   *float64 `json:"min_confidence,omitempty"`
	RiseThresholdPx *float64 `json:"rise_threshold_px,omitempty"`
	MinTravelPx     *float64 `json:"min_travel_px,omitempty"`
	FrameHeightPx   *float64 `json:"frame_height_px,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.ArmLengthMeters != nil && *c.ArmLengthMeters <= 0 {
		return fmt.Errorf("arm_length_meters must be positive, got %f", *c.ArmLengthMeters)
	}
	if c.NoiseFloorMeters != nil && *c.NoiseFloorMeters < 0 {
		return fmt.Errorf("noise_floor_meters must be non-negative, got %f", *c.NoiseFloorMeters)
	}
	if c.MinArcMeters != nil && *c.MinArcMeters < 0 {
		return fmt.Errorf("min_arc_meters must be non-negative, got %f", *c.MinArcMeters)
	}
	if c.WindowSeconds != nil && *c.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %f", *c.WindowSeconds)
	}
	if c.MinDisplacementMeters != nil && *c.MinDisplacementMeters < 0 {
		return fmt.Errorf("min_displacement_meters must be non-negative, got %f", *c.MinDisplacementMeters)
	}
	if c.Cooldown != nil && *c.Cooldown != "" {
		if _, err := time.ParseDuration(*c.Cooldown); err != nil {
			return fmt.Errorf("invalid cooldown '%s': %w", *c.Cooldown, err)
		}
	}
	if c.CenterBlend != nil && (*c.CenterBlend <= 0 || *c.CenterBlend > 1) {
		return fmt.Errorf("center_blend must be in (0, 1], got %f", *c.CenterBlend)
	}
	if c.BasisBlend != nil && (*c.BasisBlend <= 0 || *c.BasisBlend > 1) {
		return fmt.Errorf("basis_blend must be in (0, 1], got %f", *c.BasisBlend)
	}
	if c.MinRadiusMeters != nil && *c.MinRadiusMeters < 0 {
		return fmt.Errorf("min_radius_meters must be non-negative, got %f", *c.MinRadiusMeters)
	}
	if c.MinConfidence != nil && (*c.MinConfidence < 0 || *c.MinConfidence > 1) {
		return fmt.Errorf("min_confidence must be between 0 and 1, got %f", *c.MinConfidence)
	}
	if c.FrameHeightPx != nil && *c.FrameHeightPx <= 0 {
		return fmt.Errorf("frame_height_px must be positive, got %f", *c.FrameHeightPx)
	}
	return nil
}

// GetArmLengthMeters returns the arm_length_meters value or the default.
func (c *TuningConfig) GetArmLengthMeters() float64 {
	if c.ArmLengthMeters == nil {
		return rom.DefaultArmLengthMeters
	}
	return *c.ArmLengthMeters
}

// GetCooldown parses and returns the cooldown as a time.Duration.
func (c *TuningConfig) GetCooldown() time.Duration {
	if c.Cooldown == nil || *c.Cooldown == "" {
		return 300 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.Cooldown)
	if err != nil {
		return 300 * time.Millisecond // default on parse error
	}
	return d
}

// ArcConfig builds the arc-length calculator tuning, with file overrides
// applied over the compiled-in defaults.
func (c *TuningConfig) ArcConfig() rom.ArcConfig {
	cfg := rom.DefaultArcConfig()
	if c.NoiseFloorMeters != nil {
		cfg.NoiseFloorMeters = *c.NoiseFloorMeters
	}
	if c.MinArcMeters != nil {
		cfg.MinArcMeters = *c.MinArcMeters
	}
	return cfg
}

// DirectionConfig builds the direction-change detector tuning.
func (c *TuningConfig) DirectionConfig() rep.DirectionConfig {
	cfg := rep.DefaultDirectionConfig()
	if c.WindowSeconds != nil {
		cfg.WindowSeconds = *c.WindowSeconds
	}
	if c.MinDisplacementMeters != nil {
		cfg.MinDisplacementMeters = *c.MinDisplacementMeters
	}
	if c.Cooldown != nil {
		cfg.CooldownSeconds = c.GetCooldown().Seconds()
	}
	return cfg
}

// CircularConfig builds the circular-completion detector tuning.
func (c *TuningConfig) CircularConfig() rep.CircularConfig {
	cfg := rep.DefaultCircularConfig()
	if c.CenterBlend != nil {
		cfg.CenterBlend = *c.CenterBlend
	}
	if c.BasisBlend != nil {
		cfg.BasisBlend = *c.BasisBlend
	}
	if c.MinRadiusMeters != nil {
		cfg.MinRadiusMeters = *c.MinRadiusMeters
	}
	if c.Cooldown != nil {
		cfg.CooldownSeconds = c.GetCooldown().Seconds()
	}
	return cfg
}

// ApplyToProfile returns a copy of the profile with the tuning file's
// overrides folded into its detector and calculator configs.
func (c *TuningConfig) ApplyToProfile(p profile.Profile) profile.Profile {
	if c.ArmLengthMeters != nil {
		p.ArmLengthMeters = *c.ArmLengthMeters
	}
	p.Arc = c.ArcConfig()
	p.Direction = c.DirectionConfig()
	p.Circular = c.CircularConfig()
	if c.MinConfidence != nil {
		p.Camera.VerticalTravel.MinConfidence = *c.MinConfidence
		p.Camera.Flexion.MinConfidence = *c.MinConfidence
	}
	if c.RiseThresholdPx != nil {
		p.Camera.VerticalTravel.RiseThresholdPx = *c.RiseThresholdPx
	}
	if c.MinTravelPx != nil {
		p.Camera.VerticalTravel.MinTravelPx = *c.MinTravelPx
	}
	if c.FrameHeightPx != nil {
		p.Camera.VerticalTravel.FrameHeightPx = *c.FrameHeightPx
	}
	return p
}
