// Package render declares the capability set the runtime needs from a 2D
// scene-graph backend. The runtime drives rendering; it never implements it.
package render

import (
	"image"

	"canvaslink/core"
)

// Backend owns renderable nodes keyed by graphic id. Property application is
// idempotent last-write-wins; writes to unknown ids are benign no-ops.
// Implementations must be safe for concurrent use, since actions on different
// nodes run independently.
type Backend interface {
	// CreateNode makes a node exist. Creating an existing id is a no-op.
	CreateNode(id string)
	// RemoveNode destroys a node and its resources.
	RemoveNode(id string)
	// Apply writes the full property state of a node.
	Apply(state core.GraphicState)
	// SetTexture attaches a decoded image to a node; nil clears it.
	SetTexture(id string, img image.Image)
	// Clear removes every node.
	Clear()
}

// Snapshotter is implemented by backends that can report node state, used by
// the diagnostics surface.
type Snapshotter interface {
	Snapshot() []core.GraphicState
}
