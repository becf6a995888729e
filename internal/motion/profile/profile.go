// Package profile defines the data-driven exercise profiles consumed by
// the session engine. A profile is an immutable bundle selecting a rep
// detection algorithm, a ROM model, and the tuning for both; adding an
// exercise means adding a profile entry, not branching inside detectors.
package profile

import (
	"fmt"
	"sort"

	"github.com/motusrehab/motus/internal/motion/campose"
	"github.com/motusrehab/motus/internal/motion/rep"
	"github.com/motusrehab/motus/internal/motion/rom"
)

// Algorithm selects the repetition detection strategy.
type Algorithm string

const (
	// AlgorithmDirectionChange counts reps from direction reversals on the
	// dominant motion axis (pendulum and side-to-side exercises).
	AlgorithmDirectionChange Algorithm = "direction-change"

	// AlgorithmCircularCompletion counts full laps of accumulated angle
	// about a moving center (stirring and circular exercises).
	AlgorithmCircularCompletion Algorithm = "circular-completion"

	// AlgorithmPhaseThreshold counts reps from camera joint-angle or
	// landmark-travel phase transitions.
	AlgorithmPhaseThreshold Algorithm = "phase-threshold"
)

// ROMModel selects how range of motion is derived for a repetition.
type ROMModel string

const (
	// ROMModelArcLength projects the rep's path onto its dominant plane and
	// converts arc length to degrees via the arm length.
	ROMModelArcLength ROMModel = "arc-length"

	// ROMModelRadius converts the rep's peak radius about the motion center
	// to degrees via the arm length.
	ROMModelRadius ROMModel = "radius"

	// ROMModelDetector takes ROM directly from the detector's own angle
	// measurement (camera profiles).
	ROMModelDetector ROMModel = "detector"
)

// CameraMode selects which phase-threshold detector a camera profile uses.
type CameraMode string

const (
	CameraModeVerticalTravel   CameraMode = "vertical-travel"
	CameraModeExtensionFlexion CameraMode = "extension-flexion"
)

// CameraSettings holds the tuning for phase-threshold profiles.
type CameraSettings struct {
	Mode           CameraMode
	VerticalTravel campose.VerticalTravelConfig
	Flexion        campose.FlexionConfig
}

// PatternSettings enables connect-the-dots validation alongside a camera
// profile. Pattern play has no ROM.
type PatternSettings struct {
	Kind campose.PatternKind
	Size int
}

// Profile is one exercise's immutable configuration. It is bound once at
// session start and never changes mid-session.
type Profile struct {
	// Name identifies the profile in storage and telemetry.
	Name string

	Algorithm Algorithm
	ROMModel  ROMModel

	// ArmLengthMeters scales arc or radius to degrees; zero or invalid
	// values fall back to the compiled-in default at session start.
	ArmLengthMeters float64

	// Direction tunes the direction-change detector.
	Direction rep.DirectionConfig

	// Circular tunes the circular-completion detector.
	Circular rep.CircularConfig

	// Arc tunes the arc-length ROM calculator.
	Arc rom.ArcConfig

	// Camera tunes the phase-threshold detectors.
	Camera CameraSettings

	// Pattern, when non-nil, adds connect-the-dots validation.
	Pattern *PatternSettings
}

// Validate reports whether the profile is internally consistent.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	switch p.Algorithm {
	case AlgorithmDirectionChange, AlgorithmCircularCompletion:
		if p.ROMModel != ROMModelArcLength && p.ROMModel != ROMModelRadius {
			return fmt.Errorf("profile %q: algorithm %s requires an arc-length or radius ROM model, got %q",
				p.Name, p.Algorithm, p.ROMModel)
		}
	case AlgorithmPhaseThreshold:
		if p.ROMModel != ROMModelDetector {
			return fmt.Errorf("profile %q: phase-threshold profiles take ROM from the detector, got %q",
				p.Name, p.ROMModel)
		}
		switch p.Camera.Mode {
		case CameraModeVerticalTravel, CameraModeExtensionFlexion:
		default:
			return fmt.Errorf("profile %q: unknown camera mode %q", p.Name, p.Camera.Mode)
		}
	default:
		return fmt.Errorf("profile %q: unknown algorithm %q", p.Name, p.Algorithm)
	}
	if p.Pattern != nil {
		if _, err := campose.NewPatternSpec(p.Pattern.Kind, p.Pattern.Size); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return nil
}

// builtins is the shipped exercise catalogue.
var builtins = map[string]Profile{
	"pendulum-swing": {
		Name:      "pendulum-swing",
		Algorithm: AlgorithmDirectionChange,
		ROMModel:  ROMModelArcLength,
		Direction: rep.DefaultDirectionConfig(),
		Arc:       rom.DefaultArcConfig(),
	},
	"lateral-sweep": {
		Name:      "lateral-sweep",
		Algorithm: AlgorithmDirectionChange,
		ROMModel:  ROMModelArcLength,
		Direction: rep.DefaultDirectionConfig(),
		Arc:       rom.DefaultArcConfig(),
	},
	"stirring": {
		Name:      "stirring",
		Algorithm: AlgorithmCircularCompletion,
		ROMModel:  ROMModelRadius,
		Circular:  rep.DefaultCircularConfig(),
	},
	"overhead-reach": {
		Name:      "overhead-reach",
		Algorithm: AlgorithmPhaseThreshold,
		ROMModel:  ROMModelDetector,
		Camera: CameraSettings{
			Mode:           CameraModeVerticalTravel,
			VerticalTravel: campose.DefaultVerticalTravelConfig(),
		},
	},
	"elbow-extension": {
		Name:      "elbow-extension",
		Algorithm: AlgorithmPhaseThreshold,
		ROMModel:  ROMModelDetector,
		Camera: CameraSettings{
			Mode:    CameraModeExtensionFlexion,
			Flexion: campose.DefaultFlexionConfig(),
		},
	},
	"triangle-trace": {
		Name:      "triangle-trace",
		Algorithm: AlgorithmPhaseThreshold,
		ROMModel:  ROMModelDetector,
		Camera: CameraSettings{
			Mode:           CameraModeVerticalTravel,
			VerticalTravel: campose.DefaultVerticalTravelConfig(),
		},
		Pattern: &PatternSettings{Kind: campose.PatternTriangle},
	},
	"circle-trace": {
		Name:      "circle-trace",
		Algorithm: AlgorithmPhaseThreshold,
		ROMModel:  ROMModelDetector,
		Camera: CameraSettings{
			Mode:           CameraModeVerticalTravel,
			VerticalTravel: campose.DefaultVerticalTravelConfig(),
		},
		Pattern: &PatternSettings{Kind: campose.PatternCircle, Size: 8},
	},
}

// Builtin returns the named shipped profile.
func Builtin(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown builtin %q", name)
	}
	return p, nil
}

// Names returns the shipped profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
