package liveview

import (
	"context"
	"image"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"canvaslink/core"
	"canvaslink/protocol"
	"canvaslink/render"
	"canvaslink/texture"
	"canvaslink/transport"
)

// touchQueueLimit bounds how many touches wait behind the acknowledgement
// gate before the oldest is dropped.
const touchQueueLimit = 32

// Mirror observes every envelope applied by the dispatcher, e.g. to
// re-broadcast scene traffic to spectator clients.
type Mirror interface {
	Broadcast(sessionID string, frame []byte)
}

// ChromeState is the presentation chrome as last requested by the logic
// side, exposed for diagnostics.
type ChromeState struct {
	Tools              []protocol.ToolInfo `json:"tools,omitempty"`
	IncludeSystemTools bool                `json:"includeSystemTools"`
	ToolsHidden        bool                `json:"toolsHidden"`
	Button             string              `json:"button,omitempty"`
	Overlay            string              `json:"overlay,omitempty"`
	TouchHandler       bool                `json:"touchHandler"`
}

// Config carries the dispatcher's collaborators. Backend is required; the
// rest degrade to no-ops when absent.
type Config struct {
	Backend     render.Backend
	Textures    *texture.Cache
	Assets      core.AssetStore
	Sounds      core.SoundPlayer
	Status      core.StatusSink
	Transcripts core.TranscriptStore
	Mirror      Mirror
}

// Dispatcher owns the presentation side of one bridge session: the graphic
// registry, the touch acknowledgement gate, and the chrome state. It applies
// inbound messages from the logic side and emits touch, tool, button, and
// query-reply traffic back.
type Dispatcher struct {
	cfg Config

	mu        sync.Mutex
	sessionID string
	channel   transport.Channel
	graphics  map[string]*Graphic
	order     []string
	removed   map[string]bool
	chrome    ChromeState

	awaitingAck bool
	touchQueue  []core.Touch
}

// NewDispatcher creates a dispatcher over the given collaborators.
func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		graphics: make(map[string]*Graphic),
		removed:  make(map[string]bool),
	}
}

// Attach binds a logic-side channel and starts pumping its messages. A new
// attachment supersedes any previous one; the previous channel is closed.
// The returned session id identifies the connection in transcripts and to
// spectators.
func (d *Dispatcher) Attach(ch transport.Channel) string {
	sessionID := uuid.NewString()

	d.mu.Lock()
	if d.channel != nil {
		_ = d.channel.Close()
	}
	d.channel = ch
	d.sessionID = sessionID
	d.awaitingAck = false
	d.touchQueue = nil
	d.mu.Unlock()

	logrus.WithField("session_id", sessionID).Info("logic side attached")
	go d.pump(sessionID, ch)
	return sessionID
}

// SessionID returns the id of the currently attached session, if any.
func (d *Dispatcher) SessionID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessionID
}

// Chrome returns the chrome state as last requested by the logic side.
func (d *Dispatcher) Chrome() ChromeState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chrome
}

// GraphicStates returns the states of all live graphics in creation order.
func (d *Dispatcher) GraphicStates() []core.GraphicState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.liveStatesLocked()
}

func (d *Dispatcher) liveStatesLocked() []core.GraphicState {
	states := make([]core.GraphicState, 0, len(d.order))
	for _, id := range d.order {
		if g, ok := d.graphics[id]; ok {
			states = append(states, g.State())
		}
	}
	return states
}

func (d *Dispatcher) pump(sessionID string, ch transport.Channel) {
	for frame := range ch.Receive() {
		d.record(sessionID, core.DirectionInbound, frame)
		msg := protocol.Decode(frame)
		d.Apply(msg)
		if d.cfg.Mirror != nil {
			d.cfg.Mirror.Broadcast(sessionID, frame)
		}
	}

	d.mu.Lock()
	stale := d.sessionID == sessionID
	if stale {
		d.channel = nil
		d.sessionID = ""
		d.awaitingAck = false
		d.touchQueue = nil
	}
	d.mu.Unlock()
	if stale {
		logrus.WithField("session_id", sessionID).Info("logic side detached")
	}
}

// Apply executes one decoded message. Unknown message kinds and traffic for
// removed ids are logged no-ops, never failures.
func (d *Dispatcher) Apply(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.CreateNode:
		d.createGraphic(m.State)

	case protocol.SetText:
		d.withGraphic(m.ID, func(g *Graphic) { g.setText(m.Text) })
	case protocol.SetFont:
		d.withGraphic(m.ID, func(g *Graphic) { g.setFont(m.Font) })
	case protocol.SetFontSize:
		d.withGraphic(m.ID, func(g *Graphic) { g.setFontSize(m.Size) })
	case protocol.SetTextColor:
		d.withGraphic(m.ID, func(g *Graphic) { g.setColor(m.Color) })
	case protocol.SetAlpha:
		d.withGraphic(m.ID, func(g *Graphic) { g.setAlpha(m.Alpha) })
	case protocol.SetRotation:
		d.withGraphic(m.ID, func(g *Graphic) { g.setRotation(m.Radians) })
	case protocol.SetScale:
		d.withGraphic(m.ID, func(g *Graphic) { g.setScale(m.X, m.Y) })
	case protocol.SetVisible:
		d.withGraphic(m.ID, func(g *Graphic) { g.setVisible(m.Visible) })
	case protocol.SetImage:
		d.withGraphic(m.ID, func(g *Graphic) { d.applyImage(g, m.Name) })

	case protocol.PlaceGraphic:
		d.withGraphic(m.ID, func(g *Graphic) { g.place(m.Position) })

	case protocol.RunAction:
		d.withGraphic(m.ID, func(g *Graphic) { d.startAction(g, m.Action) })

	case protocol.MoveAndRemove:
		d.withGraphic(m.ID, func(g *Graphic) {
			d.startAction(g, protocol.Action{
				Kind:     protocol.ActionMoveAndRemove,
				Duration: m.Duration,
				To:       m.Position,
				Sound:    m.Sound,
				Key:      "moveAndRemove",
			})
		})

	case protocol.RemoveGraphic:
		d.removeGraphic(m.ID)

	case protocol.ClearScene:
		d.clearScene()

	case protocol.RegisterTools:
		d.setChrome(func(c *ChromeState) { c.Tools = m.Tools })
	case protocol.IncludeSystemTools:
		d.setChrome(func(c *ChromeState) { c.IncludeSystemTools = m.Enabled })
	case protocol.HideTools:
		d.setChrome(func(c *ChromeState) { c.ToolsHidden = m.Hidden })
	case protocol.SetButton:
		d.setChrome(func(c *ChromeState) { c.Button = m.Name })
	case protocol.UseOverlay:
		d.setChrome(func(c *ChromeState) { c.Overlay = m.ID })
	case protocol.RegisterTouchHandler:
		d.setChrome(func(c *ChromeState) { c.TouchHandler = m.Enabled })

	case protocol.TouchAck:
		d.handleTouchAck()

	case protocol.GetGraphics:
		d.mu.Lock()
		states := d.liveStatesLocked()
		d.mu.Unlock()
		d.send(protocol.GetGraphicsReply{Graphics: states})

	case protocol.PlaySound:
		d.playSound(m.Name)

	case protocol.SetAssessment:
		if d.cfg.Status != nil {
			d.cfg.Status.PublishStatus(m.Status, m.Message)
		}

	case protocol.Unrecognized:
		logrus.WithFields(logrus.Fields{
			"tag":    m.Tag,
			"reason": m.Reason,
		}).Warn("unrecognized message ignored")

	default:
		// Outbound-only kinds echoed back at us; nothing to do.
		logrus.WithField("kind", msg.MessageKind()).Debug("message kind not applicable to presentation side")
	}
}

// createGraphic handles an explicit create. Creating an id that already
// exists or was removed is a protocol violation and is ignored.
func (d *Dispatcher) createGraphic(state core.GraphicState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	log := logrus.WithField("graphic_id", state.ID)
	if state.ID == "" {
		log.Warn("create without id ignored")
		return
	}
	if d.removed[state.ID] {
		log.Debug("create for removed id ignored")
		return
	}
	if _, ok := d.graphics[state.ID]; ok {
		log.Debug("create for existing id ignored")
		return
	}

	g := newGraphic(state, d.cfg.Backend)
	d.graphics[state.ID] = g
	d.order = append(d.order, state.ID)
	if state.Image != "" {
		go d.applyImage(g, state.Image)
	}
}

// withGraphic runs fn against the graphic for id, creating it lazily on
// first reference. Traffic for removed ids is dropped.
func (d *Dispatcher) withGraphic(id string, fn func(*Graphic)) {
	if id == "" {
		return
	}

	d.mu.Lock()
	if d.removed[id] {
		d.mu.Unlock()
		logrus.WithField("graphic_id", id).Debug("message for removed graphic ignored")
		return
	}
	g, ok := d.graphics[id]
	if !ok {
		g = newGraphic(core.NewGraphicState(id, core.KindShape), d.cfg.Backend)
		d.graphics[id] = g
		d.order = append(d.order, id)
	}
	d.mu.Unlock()

	fn(g)
}

func (d *Dispatcher) startAction(g *Graphic, action protocol.Action) {
	if action.Sound != "" {
		d.playSound(action.Sound)
	}
	g.runAction(action, func(done protocol.Action) {
		if done.Terminal() {
			d.removeGraphic(g.ID())
		}
	})
}

// applyImage resolves a named image through the texture cache and attaches
// it. A failed lookup clears the node's image instead of failing the message.
func (d *Dispatcher) applyImage(g *Graphic, name string) {
	if name == "" {
		g.setImage("")
		d.cfg.Backend.SetTexture(g.ID(), nil)
		return
	}

	var img image.Image
	ok := false
	if d.cfg.Textures != nil {
		img, ok = d.cfg.Textures.Lookup(name)
	}
	if !ok {
		if d.cfg.Assets == nil {
			g.setImage("")
			return
		}
		decoded, err := d.cfg.Assets.Image(context.Background(), name)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"graphic_id": g.ID(),
				"asset":      name,
			}).Warn("image unavailable, clearing")
			g.setImage("")
			d.cfg.Backend.SetTexture(g.ID(), nil)
			return
		}
		if d.cfg.Textures != nil {
			img = d.cfg.Textures.AddClamped(name, decoded, texture.UsageGraphic)
		} else {
			img = texture.Clamp(decoded, texture.UsageGraphic)
		}
	}

	g.setImage(name)
	d.cfg.Backend.SetTexture(g.ID(), img)
}

func (d *Dispatcher) removeGraphic(id string) {
	d.mu.Lock()
	g, ok := d.graphics[id]
	if !ok {
		alreadyRemoved := d.removed[id]
		d.mu.Unlock()
		if alreadyRemoved {
			logrus.WithField("graphic_id", id).Debug("remove for removed graphic ignored")
		}
		return
	}
	delete(d.graphics, id)
	d.removed[id] = true
	d.mu.Unlock()

	g.stopAllActions()
	d.cfg.Backend.RemoveNode(id)
}

func (d *Dispatcher) clearScene() {
	d.mu.Lock()
	graphics := d.graphics
	d.graphics = make(map[string]*Graphic)
	for id := range graphics {
		d.removed[id] = true
	}
	d.order = nil
	d.mu.Unlock()

	for _, g := range graphics {
		g.stopAllActions()
	}
	d.cfg.Backend.Clear()
}

func (d *Dispatcher) setChrome(change func(*ChromeState)) {
	d.mu.Lock()
	change(&d.chrome)
	d.mu.Unlock()
}

func (d *Dispatcher) playSound(name string) {
	if d.cfg.Sounds == nil {
		return
	}
	// Playback failure never blocks or fails the message that carried it.
	if err := d.cfg.Sounds.Play(context.Background(), name); err != nil {
		logrus.WithFields(logrus.Fields{
			"sound": name,
			"error": err,
		}).Debug("sound playback failed")
	}
}

// SubmitTouch forwards a touch to the logic side under the acknowledgement
// gate: at most one touch is in flight; later touches queue until the ack
// arrives. When the bounded queue overflows the oldest waiting touch is
// dropped with a warning, never silently.
func (d *Dispatcher) SubmitTouch(touch core.Touch) {
	d.mu.Lock()
	if d.awaitingAck {
		if len(d.touchQueue) >= touchQueueLimit {
			dropped := d.touchQueue[0]
			d.touchQueue = d.touchQueue[1:]
			logrus.WithField("position", dropped.Position).Warn("touch queue overflow, dropping oldest")
		}
		d.touchQueue = append(d.touchQueue, touch)
		d.mu.Unlock()
		return
	}
	d.awaitingAck = true
	d.mu.Unlock()

	d.send(protocol.SceneTouchEvent{Touch: touch})
}

// PendingTouches reports how many touches wait behind the gate.
func (d *Dispatcher) PendingTouches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.touchQueue)
}

func (d *Dispatcher) handleTouchAck() {
	d.mu.Lock()
	if len(d.touchQueue) > 0 {
		next := d.touchQueue[0]
		d.touchQueue = d.touchQueue[1:]
		d.mu.Unlock()
		d.send(protocol.SceneTouchEvent{Touch: next})
		return
	}
	d.awaitingAck = false
	d.mu.Unlock()
}

// SelectTool notifies the logic side that the user picked a tool.
func (d *Dispatcher) SelectTool(name string) {
	d.send(protocol.ToolSelected{Name: name})
}

// PressActionButton notifies the logic side that the action button fired.
func (d *Dispatcher) PressActionButton() {
	d.send(protocol.ActionButtonPressed{})
}

// Trigger forwards an assessment phase boundary to the logic side.
func (d *Dispatcher) Trigger(phase core.AssessmentPhase, context string) {
	d.send(protocol.Trigger{Phase: phase, Context: context})
}

func (d *Dispatcher) send(msg protocol.Message) {
	d.mu.Lock()
	ch := d.channel
	sessionID := d.sessionID
	d.mu.Unlock()
	if ch == nil {
		return
	}

	frame, err := protocol.Encode(msg)
	if err != nil {
		logrus.WithError(err).Error("failed to encode outbound message")
		return
	}
	d.record(sessionID, core.DirectionOutbound, frame)
	if err := ch.Send(frame); err != nil {
		logrus.WithFields(logrus.Fields{
			"kind":  msg.MessageKind(),
			"error": err,
		}).Warn("failed to send to logic side")
	}
}

func (d *Dispatcher) record(sessionID string, direction core.Direction, frame []byte) {
	if d.cfg.Transcripts == nil || sessionID == "" {
		return
	}
	kind := string(protocol.Decode(frame).MessageKind())
	if _, err := d.cfg.Transcripts.Append(context.Background(), sessionID, direction, kind, frame); err != nil {
		logrus.WithError(err).Debug("transcript append failed")
	}
}
