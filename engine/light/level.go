package light

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxLevels is the number of level slots in the lighting table.
	MaxLevels = 40

	// MaxAreas is the number of areas per level.
	MaxAreas = 3

	// MaxLevelLights is the number of lights a single level area may hold.
	MaxLevelLights = 128

	// MaxLights is the total number of lights submitted to the backend per frame.
	MaxLights = 512

	// MaxDynamicLights is the share of MaxLights left for dynamic lights.
	MaxDynamicLights = MaxLights - MaxLevelLights
)

// ErrOutOfRange is returned when a level, area or light count falls outside the table bounds.
var ErrOutOfRange = errors.New("level lighting index out of range")

// Levels holds the static lights of every level area.
// The active area is selected with Select; the simulation thread owns the table.
type Levels struct {
	areas       [MaxLevels][MaxAreas][]Light
	level, area int
}

// NewLevels creates a table where every area holds the default ambient and sun lights.
//
// Returns:
//   - *Levels: the initialized table
func NewLevels() *Levels {
	l := &Levels{}
	l.ResetDefaults()
	return l
}

// DefaultAreaLights returns the two lights every area starts with: a dim ambient fill at the origin and a
// distant warm sun.
func DefaultAreaLights() []Light {
	return []Light{
		{
			DiffuseColor: mgl32.Vec3{0.3, 0.35, 0.45},
		},
		{
			Position:          mgl32.Vec3{100000, 200000, 100000},
			DiffuseColor:      mgl32.Vec3{0.8, 0.75, 0.65},
			SpecularColor:     mgl32.Vec3{0.8, 0.75, 0.65},
			AttenuationRadius: 1e11,
			PointRadius:       5000,
			GroupBits:         GroupDefault,
		},
	}
}

// ResetDefaults restores the default lights in every area.
func (l *Levels) ResetDefaults() {
	for lv := range l.areas {
		for a := range l.areas[lv] {
			l.areas[lv][a] = DefaultAreaLights()
		}
	}
}

// Select makes (level, area) the active lighting set. Out of range indices fall back to (0, 0).
//
// Parameters:
//   - level: the level index
//   - area: the area index
func (l *Levels) Select(level, area int) {
	if level < 0 || level >= MaxLevels || area < 0 || area >= MaxAreas {
		level, area = 0, 0
	}
	l.level, l.area = level, area
}

// Selected returns the active (level, area) pair.
func (l *Levels) Selected() (int, int) {
	return l.level, l.area
}

// Area returns the lights of (level, area).
//
// Parameters:
//   - level: the level index
//   - area: the area index
//
// Returns:
//   - []Light: the area's lights (shared, do not modify)
//   - error: ErrOutOfRange for invalid indices
func (l *Levels) Area(level, area int) ([]Light, error) {
	if err := checkArea(level, area); err != nil {
		return nil, err
	}
	return l.areas[level][area], nil
}

// SetArea replaces the lights of (level, area).
//
// Parameters:
//   - level: the level index
//   - area: the area index
//   - lights: the new lights, at most MaxLevelLights
//
// Returns:
//   - error: ErrOutOfRange for invalid indices or too many lights
func (l *Levels) SetArea(level, area int, lights []Light) error {
	if err := checkArea(level, area); err != nil {
		return err
	}
	if len(lights) > MaxLevelLights {
		return fmt.Errorf("level %d area %d has %d lights, max %d: %w", level, area, len(lights), MaxLevelLights, ErrOutOfRange)
	}
	l.areas[level][area] = append([]Light(nil), lights...)
	return nil
}

// Compose builds the frame light list: the active area's lights followed by the dynamic lights.
// Exceeding MaxLights is a programming error and panics.
//
// Parameters:
//   - dynamic: the lights added during the current tick
//
// Returns:
//   - []Light: a freshly allocated list safe to hand to another thread
func (l *Levels) Compose(dynamic []Light) []Light {
	static := l.areas[l.level][l.area]
	total := len(static) + len(dynamic)
	if total > MaxLights {
		panic(fmt.Sprintf("frame light overflow: %d lights, max %d", total, MaxLights))
	}
	out := make([]Light, 0, total)
	out = append(out, static...)
	return append(out, dynamic...)
}

func checkArea(level, area int) error {
	if level < 0 || level >= MaxLevels {
		return fmt.Errorf("level %d: %w", level, ErrOutOfRange)
	}
	if area < 0 || area >= MaxAreas {
		return fmt.Errorf("level %d area %d: %w", level, area, ErrOutOfRange)
	}
	return nil
}
