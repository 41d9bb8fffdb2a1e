// Package scene is the logic side of the bridge: the user-facing Graphic,
// Tool, and Scene API. Every mutation becomes a message on the outbound
// channel; inbound traffic (touches, tool selection, query replies,
// assessment triggers) is dispatched from a single receive pump, so user
// callbacks never race each other.
package scene

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"canvaslink/core"
	"canvaslink/protocol"
	"canvaslink/transport"
)

// defaultQueryTimeout bounds the blocking graphics query. On expiry the query
// returns an empty list instead of hanging the caller.
const defaultQueryTimeout = 3 * time.Second

// Scene owns the logic side of one live view session: the registered tools,
// the graphics created by user code, the touch-interaction state, and the
// assessment lifecycle.
type Scene struct {
	channel transport.Channel

	mu           sync.Mutex
	graphics     map[string]*Graphic
	tools        []*Tool
	selectedTool *Tool
	button       string

	lastPlacement core.Point
	hasPlacement  bool
	placedIDs     map[string]bool

	pendingQuery chan []core.GraphicState
	queryTimeout time.Duration

	continuousAssessment bool
	recording            bool
	recordedTouches      []core.Touch
	evaluator            func([]core.Touch) (core.AssessmentStatus, string)

	onButtonPressed func()
}

// Option configures a Scene.
type Option func(*Scene)

// WithQueryTimeout overrides the graphics-query timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Scene) { s.queryTimeout = d }
}

// NewScene creates a scene over an established channel to the presentation
// side and starts its receive pump.
func NewScene(ch transport.Channel, opts ...Option) *Scene {
	s := &Scene{
		channel:      ch,
		graphics:     make(map[string]*Graphic),
		placedIDs:    make(map[string]bool),
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.pump()
	return s
}

// Close tears the channel down.
func (s *Scene) Close() error {
	return s.channel.Close()
}

func (s *Scene) send(msg protocol.Message) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		logrus.WithError(err).Error("failed to encode outbound message")
		return
	}
	if err := s.channel.Send(frame); err != nil {
		logrus.WithFields(logrus.Fields{
			"kind":  msg.MessageKind(),
			"error": err,
		}).Warn("failed to send to presentation side")
	}
}

// pump dispatches inbound messages until the connection closes. It keeps
// running during a blocking graphics query, so other message kinds arriving
// in that window are processed normally rather than deferred.
func (s *Scene) pump() {
	for frame := range s.channel.Receive() {
		switch m := protocol.Decode(frame).(type) {
		case protocol.ToolSelected:
			s.selectTool(m.Name)
		case protocol.SceneTouchEvent:
			s.handleTouch(m.Touch)
		case protocol.ActionButtonPressed:
			s.handleButtonPressed()
		case protocol.GetGraphicsReply:
			s.handleGraphicsReply(m.Graphics)
		case protocol.Trigger:
			s.handleTrigger(m.Phase)
		case protocol.Unrecognized:
			logrus.WithFields(logrus.Fields{
				"tag":    m.Tag,
				"reason": m.Reason,
			}).Warn("unrecognized message ignored")
		default:
			logrus.WithField("kind", m.MessageKind()).Debug("message kind not applicable to logic side")
		}
	}

	// Connection closed: interaction state does not outlive it.
	s.resetInteraction()
	logrus.Info("presentation side disconnected")
}

func (s *Scene) registerGraphic(g *Graphic) {
	s.mu.Lock()
	s.graphics[g.ID()] = g
	s.mu.Unlock()
}

func (s *Scene) unregisterGraphic(id string) {
	s.mu.Lock()
	delete(s.graphics, id)
	s.mu.Unlock()
}

// Graphic returns the live proxy for id, if any.
func (s *Scene) Graphic(id string) (*Graphic, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphics[id]
	return g, ok
}

// notePlacement records a placement for gesture enrichment.
func (s *Scene) notePlacement(id string, at core.Point) {
	s.mu.Lock()
	s.lastPlacement = at
	s.hasPlacement = true
	s.placedIDs[id] = true
	s.mu.Unlock()
}

// SetTools replaces the registered tool list: everything is unregistered
// first, then the new list is registered in caller order.
func (s *Scene) SetTools(tools []*Tool) {
	s.mu.Lock()
	s.tools = nil
	s.selectedTool = nil
	infos := make([]protocol.ToolInfo, 0, len(tools))
	wantsTouches := false
	for _, t := range tools {
		s.tools = append(s.tools, t)
		infos = append(infos, t.info())
		if t.Options&(ToolWantsTouchMove|ToolWantsGraphicTouch) != 0 {
			wantsTouches = true
		}
	}
	s.mu.Unlock()

	s.send(protocol.RegisterTools{Tools: infos})
	s.send(protocol.RegisterTouchHandler{Enabled: wantsTouches})
}

// Tools returns the registered tools in registration order.
func (s *Scene) Tools() []*Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// SelectedTool returns the tool last selected in the live view.
func (s *Scene) SelectedTool() *Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedTool
}

// IncludeSystemTools asks the live view to offer its built-in tools.
func (s *Scene) IncludeSystemTools(enabled bool) {
	s.send(protocol.IncludeSystemTools{Enabled: enabled})
}

// HideTools hides or shows the tool bar.
func (s *Scene) HideTools(hidden bool) {
	s.send(protocol.HideTools{Hidden: hidden})
}

// SetButton labels the action button.
func (s *Scene) SetButton(name string) {
	s.mu.Lock()
	s.button = name
	s.mu.Unlock()
	s.send(protocol.SetButton{Name: name})
}

// Button returns the current action button label.
func (s *Scene) Button() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.button
}

// OnButtonPressed registers the action button handler.
func (s *Scene) OnButtonPressed(fn func()) {
	s.mu.Lock()
	s.onButtonPressed = fn
	s.mu.Unlock()
}

// UseOverlay asks the live view to show a named overlay.
func (s *Scene) UseOverlay(id string) {
	s.send(protocol.UseOverlay{ID: id})
}

// ClearScene removes every graphic on both sides.
func (s *Scene) ClearScene() {
	s.mu.Lock()
	s.graphics = make(map[string]*Graphic)
	s.mu.Unlock()
	s.send(protocol.ClearScene{})
}

// PlaySound plays a named sound asset in the live view.
func (s *Scene) PlaySound(name string) {
	s.send(protocol.PlaySound{Name: name})
}

func (s *Scene) selectTool(name string) {
	s.mu.Lock()
	s.selectedTool = nil
	for _, t := range s.tools {
		if t.Name == name {
			s.selectedTool = t
			break
		}
	}
	found := s.selectedTool != nil
	s.mu.Unlock()

	if !found {
		logrus.WithField("tool", name).Warn("selection for unregistered tool")
	}
}

// handleTouch enriches the touch, dispatches it to the selected tool's
// interested callbacks, and always acknowledges afterwards so the
// presentation side may release its next touch.
func (s *Scene) handleTouch(touch core.Touch) {
	s.mu.Lock()
	if touch.FirstTouch {
		s.placedIDs = make(map[string]bool)
	}
	if s.hasPlacement {
		touch.PreviousPlaceDistance = s.lastPlacement.Distance(touch.Position)
	}
	touch.NumTouchesPlaced = len(s.placedIDs)
	tool := s.selectedTool
	if s.recording {
		s.recordedTouches = append(s.recordedTouches, touch)
	}
	var touched *Graphic
	if touch.TouchedGraphicID != "" {
		touched = s.graphics[touch.TouchedGraphicID]
	}
	s.mu.Unlock()

	if tool != nil {
		if tool.Options&ToolWantsTouchMove != 0 && tool.OnTouchMoved != nil {
			tool.OnTouchMoved(touch)
		}
		if tool.Options&ToolWantsGraphicTouch != 0 && tool.OnGraphicTouched != nil && touched != nil {
			tool.OnGraphicTouched(touched)
		}
	}

	s.send(protocol.TouchAck{})
}

func (s *Scene) handleButtonPressed() {
	s.mu.Lock()
	fn := s.onButtonPressed
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Graphics performs the one synchronous-style round trip in the API: it
// sends a query and blocks until the matching reply arrives, rebuilding the
// returned entries into proxies with message suppression active. The wait is
// bounded by the query timeout; on expiry it returns an empty list and logs
// a warning instead of hanging forever.
func (s *Scene) Graphics() []*Graphic {
	s.mu.Lock()
	if s.pendingQuery != nil {
		s.mu.Unlock()
		logrus.Warn("graphics query already in flight")
		return nil
	}
	reply := make(chan []core.GraphicState, 1)
	s.pendingQuery = reply
	timeout := s.queryTimeout
	s.mu.Unlock()

	s.send(protocol.GetGraphics{})

	var states []core.GraphicState
	select {
	case states = <-reply:
	case <-time.After(timeout):
		logrus.WithField("timeout", timeout).Warn("graphics query timed out")
	}

	s.mu.Lock()
	s.pendingQuery = nil
	existing := make(map[string]*Graphic, len(s.graphics))
	for id, g := range s.graphics {
		existing[id] = g
	}
	s.mu.Unlock()

	graphics := make([]*Graphic, 0, len(states))
	for _, state := range states {
		if g, ok := existing[state.ID]; ok {
			// Refresh the local mirror without echoing state the
			// presentation side already holds.
			g.suppress = true
			g.state = state
			g.suppress = false
			graphics = append(graphics, g)
			continue
		}
		graphics = append(graphics, newSuppressedGraphic(s, state))
	}
	return graphics
}

func (s *Scene) handleGraphicsReply(states []core.GraphicState) {
	s.mu.Lock()
	pending := s.pendingQuery
	s.mu.Unlock()

	if pending == nil {
		logrus.Debug("graphics reply with no query in flight")
		return
	}
	select {
	case pending <- states:
	default:
	}
}

// SetContinuousAssessment turns trigger handling on or off. Triggers are
// ignored entirely outside continuous assessment mode.
func (s *Scene) SetContinuousAssessment(enabled bool) {
	s.mu.Lock()
	s.continuousAssessment = enabled
	s.mu.Unlock()
}

// SetEvaluator installs the function run on an evaluate trigger. It receives
// the touches recorded since the last start trigger.
func (s *Scene) SetEvaluator(fn func([]core.Touch) (core.AssessmentStatus, string)) {
	s.mu.Lock()
	s.evaluator = fn
	s.mu.Unlock()
}

// SetAssessment publishes an assessment status to the presentation side.
func (s *Scene) SetAssessment(status core.AssessmentStatus, message string) {
	s.send(protocol.SetAssessment{Status: status, Message: message})
}

func (s *Scene) handleTrigger(phase core.AssessmentPhase) {
	s.mu.Lock()
	if !s.continuousAssessment {
		s.mu.Unlock()
		logrus.WithField("phase", phase).Debug("trigger ignored outside continuous assessment")
		return
	}

	switch phase {
	case core.PhaseStart:
		s.recordedTouches = nil
		s.recording = true
		s.mu.Unlock()

	case core.PhaseStop:
		s.recording = false
		s.mu.Unlock()
		s.resetInteraction()

	case core.PhaseEvaluate:
		evaluator := s.evaluator
		touches := s.recordedTouches
		s.mu.Unlock()

		status, message := core.StatusUncertain, ""
		if evaluator != nil {
			status, message = evaluator(touches)
		}
		s.SetAssessment(status, message)

	default:
		s.mu.Unlock()
		logrus.WithField("phase", phase).Warn("unknown assessment phase")
	}
}

// resetInteraction clears the per-gesture state; fired on connection close
// and on an assessment stop boundary.
func (s *Scene) resetInteraction() {
	s.mu.Lock()
	s.placedIDs = make(map[string]bool)
	s.hasPlacement = false
	s.lastPlacement = core.Point{}
	s.mu.Unlock()
}
