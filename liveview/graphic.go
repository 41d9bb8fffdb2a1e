// Package liveview is the presentation side of the bridge: it replays
// decoded messages onto render nodes, runs timed actions, and routes touch
// input back to the logic side under an acknowledgement gate.
package liveview

import (
	"sync"

	"canvaslink/core"
	"canvaslink/protocol"
	"canvaslink/render"
)

// Graphic is the presentation-side actor backing one graphic id. Its state
// machine is absent -> created -> (updating)* -> removed; the removed step is
// owned by the Dispatcher. Property setters are idempotent last-write-wins.
type Graphic struct {
	mu      sync.Mutex
	state   core.GraphicState
	backend render.Backend

	keyed   map[string]*runningAction
	running map[*runningAction]struct{}
}

func newGraphic(state core.GraphicState, backend render.Backend) *Graphic {
	g := &Graphic{
		state:   state,
		backend: backend,
		keyed:   make(map[string]*runningAction),
		running: make(map[*runningAction]struct{}),
	}
	backend.CreateNode(state.ID)
	backend.Apply(state)
	return g
}

// ID returns the graphic's id.
func (g *Graphic) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.ID
}

// State returns a snapshot of the current property state.
func (g *Graphic) State() core.GraphicState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// mutate applies one property change under the lock and pushes the result to
// the render backend.
func (g *Graphic) mutate(change func(*core.GraphicState)) {
	g.mu.Lock()
	change(&g.state)
	state := g.state
	g.mu.Unlock()
	g.backend.Apply(state)
}

func (g *Graphic) setText(text string)       { g.mutate(func(s *core.GraphicState) { s.Text = text }) }
func (g *Graphic) setFont(font string)       { g.mutate(func(s *core.GraphicState) { s.Font = font }) }
func (g *Graphic) setFontSize(size float64)  { g.mutate(func(s *core.GraphicState) { s.FontSize = size }) }
func (g *Graphic) setColor(color core.Color) { g.mutate(func(s *core.GraphicState) { s.Color = color }) }
func (g *Graphic) setAlpha(alpha float64)    { g.mutate(func(s *core.GraphicState) { s.Alpha = alpha }) }
func (g *Graphic) setRotation(rad float64)   { g.mutate(func(s *core.GraphicState) { s.Rotation = rad }) }
func (g *Graphic) setVisible(visible bool)   { g.mutate(func(s *core.GraphicState) { s.Hidden = !visible }) }
func (g *Graphic) setImage(name string)      { g.mutate(func(s *core.GraphicState) { s.Image = name }) }

func (g *Graphic) setScale(x, y float64) {
	g.mutate(func(s *core.GraphicState) {
		s.XScale = x
		s.YScale = y
	})
}

func (g *Graphic) place(position core.Point) {
	g.mutate(func(s *core.GraphicState) { s.Position = position })
}

// runAction starts an action. A non-empty key cancels any running action with
// the same key on this graphic first; the cancelled action settles where it
// is and its completion never fires. onCompleted is invoked exactly once per
// naturally finished action, after the terminal property state is applied.
func (g *Graphic) runAction(action protocol.Action, onCompleted func(protocol.Action)) {
	ra := newRunningAction()

	g.mu.Lock()
	if action.Key != "" {
		if prev, ok := g.keyed[action.Key]; ok {
			prev.stop()
			delete(g.running, prev)
		}
		g.keyed[action.Key] = ra
	}
	g.running[ra] = struct{}{}
	start := g.state
	g.mu.Unlock()

	finish := func(completed bool) {
		g.mu.Lock()
		if action.Key != "" && g.keyed[action.Key] == ra {
			delete(g.keyed, action.Key)
		}
		delete(g.running, ra)
		g.mu.Unlock()
		if completed && onCompleted != nil {
			onCompleted(action)
		}
	}

	go ra.run(g, start, action, finish)
}

// stopAllActions cancels everything currently running; no completions fire.
func (g *Graphic) stopAllActions() {
	g.mu.Lock()
	for ra := range g.running {
		ra.stop()
	}
	g.running = make(map[*runningAction]struct{})
	g.keyed = make(map[string]*runningAction)
	g.mu.Unlock()
}

// actionCount reports how many actions are currently running.
func (g *Graphic) actionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.running)
}
