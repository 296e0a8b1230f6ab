package light

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Dynamic is a bounded list of lights contributed while resolving overrides during a simulation tick.
// It is owned by the simulation thread and cleared once per tick.
type Dynamic struct {
	lights   []Light
	capacity int
}

// NewDynamic creates an empty dynamic light list.
//
// Parameters:
//   - capacity: the maximum number of lights per tick
//
// Returns:
//   - *Dynamic: the new list
func NewDynamic(capacity int) *Dynamic {
	return &Dynamic{
		lights:   make([]Light, 0, capacity),
		capacity: capacity,
	}
}

// Add appends src placed by transform. Exceeding the capacity is a programming error and panics.
//
// Parameters:
//   - src: the light in node space
//   - transform: the node-to-world transform
func (d *Dynamic) Add(src Light, transform mgl32.Mat4) {
	if len(d.lights) >= d.capacity {
		panic(fmt.Sprintf("dynamic light overflow: capacity %d reached", d.capacity))
	}
	d.lights = append(d.lights, src.Transformed(transform))
}

// Lights returns the lights added since the last Reset. The slice is only valid until the next Add or Reset.
func (d *Dynamic) Lights() []Light {
	return d.lights
}

// Len returns the number of lights added since the last Reset.
func (d *Dynamic) Len() int {
	return len(d.lights)
}

// Reset clears the list, keeping its storage.
func (d *Dynamic) Reset() {
	d.lights = d.lights[:0]
}
