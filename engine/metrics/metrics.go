// Package metrics holds the prometheus collectors the bridge reports through.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MeshEvents counts mesh cache transitions by event (upload, create, recycle, promote, retire, evict_dynamic, evict_static).
	MeshEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxyrt_mesh_events_total",
			Help: "Mesh cache events by type",
		},
		[]string{"event"},
	)

	// MeshRecords tracks the number of live mesh records per tier.
	MeshRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oxyrt_mesh_records",
			Help: "Live mesh records by tier",
		},
		[]string{"tier"},
	)

	// VariantCompiles counts shader variant compilations by origin (preload or lazy).
	VariantCompiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxyrt_shader_variant_compiles_total",
			Help: "Shader variant compilations by origin",
		},
		[]string{"origin"},
	)

	// Frames counts frame hand-offs by outcome (published, dropped, consumed).
	Frames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxyrt_frames_total",
			Help: "Render frames by outcome",
		},
		[]string{"outcome"},
	)

	// TextureUploads counts textures created on the render timeline.
	TextureUploads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oxyrt_texture_uploads_total",
			Help: "Textures uploaded to the backend",
		},
	)

	// Instances tracks the instance count of the last completed frame.
	Instances = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oxyrt_frame_instances",
			Help: "Instances in the last completed frame",
		},
	)

	// Lights tracks the light count of the last completed frame.
	Lights = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "oxyrt_frame_lights",
			Help: "Lights in the last completed frame",
		},
	)

	// TickDuration observes the wall time spent in the simulation tick callback.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oxyrt_tick_seconds",
			Help:    "Simulation tick time in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
