// Package memory provides the in-memory render backend used by tests and by
// the default headless host. Nodes are plain state records; a GUI backend
// would map the same calls onto real scene-graph objects.
package memory

import (
	"image"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"canvaslink/core"
	"canvaslink/render"
)

type node struct {
	state   core.GraphicState
	texture image.Image
}

type backend struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

// NewBackend creates an empty in-memory backend.
func NewBackend() render.Backend {
	return &backend{nodes: make(map[string]*node)}
}

func (b *backend) CreateNode(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.nodes[id]; ok {
		return
	}
	b.nodes[id] = &node{state: core.NewGraphicState(id, core.KindShape)}
}

func (b *backend) RemoveNode(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.nodes, id)
}

func (b *backend) Apply(state core.GraphicState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[state.ID]
	if !ok {
		logrus.WithField("graphic_id", state.ID).Debug("apply to unknown node ignored")
		return
	}
	n.state = state
}

func (b *backend) SetTexture(id string, img image.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[id]
	if !ok {
		logrus.WithField("graphic_id", id).Debug("texture for unknown node ignored")
		return
	}
	n.texture = img
}

func (b *backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes = make(map[string]*node)
}

// State returns the current property state of one node.
func (b *backend) State(id string) (core.GraphicState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[id]
	if !ok {
		return core.GraphicState{}, false
	}
	return n.state, true
}

// Texture returns the image attached to one node, if any.
func (b *backend) Texture(id string) (image.Image, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[id]
	if !ok || n.texture == nil {
		return nil, false
	}
	return n.texture, true
}

// Snapshot returns all node states ordered by id, for diagnostics.
func (b *backend) Snapshot() []core.GraphicState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	states := make([]core.GraphicState, 0, len(b.nodes))
	for _, n := range b.nodes {
		states = append(states, n.state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}
