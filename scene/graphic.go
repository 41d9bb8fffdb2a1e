package scene

import (
	"math"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"canvaslink/core"
	"canvaslink/protocol"
)

// Graphic is the logic-side proxy for one renderable node. It mirrors the
// presentation-side state locally and emits exactly one message per mutation,
// unless the suppression flag is active (used only while rebuilding proxies
// from a graphics-query reply, so already-known state is not echoed back).
type Graphic struct {
	scene *Scene

	state    core.GraphicState
	suppress bool
	removed  bool
}

// NewGraphic creates a graphic with a fresh id and announces it to the
// presentation side.
func (s *Scene) NewGraphic(kind core.GraphicKind) *Graphic {
	g := &Graphic{
		scene: s,
		state: core.NewGraphicState(ulid.Make().String(), kind),
	}
	s.registerGraphic(g)
	s.send(protocol.CreateNode{State: g.state})
	return g
}

// newSuppressedGraphic rebuilds a proxy from presentation-side state without
// emitting anything.
func newSuppressedGraphic(s *Scene, state core.GraphicState) *Graphic {
	g := &Graphic{scene: s, state: state, suppress: true}
	s.registerGraphic(g)
	g.suppress = false
	return g
}

// ID returns the graphic's identifier, the only join key across the bridge.
func (g *Graphic) ID() string { return g.state.ID }

// Equal reports whether both proxies refer to the same graphic id.
func (g *Graphic) Equal(other *Graphic) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.state.ID == other.state.ID
}

// State returns the last-known state mirror.
func (g *Graphic) State() core.GraphicState { return g.state }

// Position returns the last-known position.
func (g *Graphic) Position() core.Point { return g.state.Position }

// emit sends a mutation message unless suppression is on or the graphic has
// been removed. Mutating a removed graphic is a caller error, logged and
// dropped rather than sent.
func (g *Graphic) emit(msg protocol.Message) {
	if g.suppress {
		return
	}
	if g.removed {
		logrus.WithFields(logrus.Fields{
			"graphic_id": g.state.ID,
			"kind":       msg.MessageKind(),
		}).Warn("mutation on removed graphic dropped")
		return
	}
	g.scene.send(msg)
}

// SetText sets the displayed text.
func (g *Graphic) SetText(text string) {
	g.state.Text = text
	g.emit(protocol.SetText{ID: g.state.ID, Text: text})
}

// SetFont sets the font by name.
func (g *Graphic) SetFont(font string) {
	g.state.Font = font
	g.emit(protocol.SetFont{ID: g.state.ID, Font: font})
}

// SetFontSize sets the font size in points.
func (g *Graphic) SetFontSize(size float64) {
	g.state.FontSize = size
	g.emit(protocol.SetFontSize{ID: g.state.ID, Size: size})
}

// SetTextColor sets the text color.
func (g *Graphic) SetTextColor(color core.Color) {
	g.state.Color = color
	g.emit(protocol.SetTextColor{ID: g.state.ID, Color: color})
}

// SetAlpha sets opacity in the 0..1 range.
func (g *Graphic) SetAlpha(alpha float64) {
	g.state.Alpha = alpha
	g.emit(protocol.SetAlpha{ID: g.state.ID, Alpha: alpha})
}

// SetRotation sets the rotation in degrees; the wire carries radians.
func (g *Graphic) SetRotation(degrees float64) {
	radians := degrees * math.Pi / 180
	g.state.Rotation = radians
	g.emit(protocol.SetRotation{ID: g.state.ID, Radians: radians})
}

// SetScale sets a uniform scale factor.
func (g *Graphic) SetScale(scale float64) {
	g.state.XScale = scale
	g.state.YScale = scale
	g.emit(protocol.SetScale{ID: g.state.ID, X: scale, Y: scale})
}

// SetImage sets the image asset by name; empty clears it.
func (g *Graphic) SetImage(name string) {
	g.state.Image = name
	g.emit(protocol.SetImage{ID: g.state.ID, Name: name})
}

// SetHidden toggles visibility.
func (g *Graphic) SetHidden(hidden bool) {
	g.state.Hidden = hidden
	g.emit(protocol.SetVisible{ID: g.state.ID, Visible: !hidden})
}

// Place puts the graphic at a position on the canvas and records the
// placement for touch-gesture bookkeeping.
func (g *Graphic) Place(at core.Point) {
	g.state.Position = at
	g.emit(protocol.PlaceGraphic{ID: g.state.ID, Position: at, IsPrintable: true})
	if !g.suppress && !g.removed {
		g.scene.notePlacement(g.state.ID, at)
	}
}

// Remove destroys the presentation-side node. The proxy handle survives but
// is terminal: no further mutation is sent for this id.
func (g *Graphic) Remove() {
	if g.removed {
		return
	}
	g.emit(protocol.RemoveGraphic{ID: g.state.ID})
	g.removed = true
	g.scene.unregisterGraphic(g.state.ID)
}

// runAction emits a keyed action. Re-issuing the same key replaces the
// running instance on the presentation side instead of queuing beside it.
func (g *Graphic) runAction(action protocol.Action) {
	g.emit(protocol.RunAction{ID: g.state.ID, Action: action})
}

// Move animates the graphic to a position.
func (g *Graphic) Move(to core.Point, duration float64) {
	g.state.Position = to
	g.runAction(protocol.Action{Kind: protocol.ActionMove, To: to, Duration: duration, Key: "moveTo"})
}

// MoveBy animates the graphic by a relative offset.
func (g *Graphic) MoveBy(delta core.Point, duration float64) {
	g.state.Position = g.state.Position.Add(delta)
	g.runAction(protocol.Action{Kind: protocol.ActionMoveBy, By: delta, Duration: duration, Key: "moveBy"})
}

// Scale animates to a uniform scale factor.
func (g *Graphic) Scale(to float64, duration float64) {
	g.state.XScale = to
	g.state.YScale = to
	g.runAction(protocol.Action{Kind: protocol.ActionScale, Scale: to, Duration: duration, Key: "scale"})
}

// Orbit circles the graphic around a center point.
func (g *Graphic) Orbit(center core.Point, cycles float64, duration float64) {
	g.runAction(protocol.Action{Kind: protocol.ActionOrbit, To: center, Cycles: cycles, Duration: duration, Key: "orbit"})
}

// Spin rotates the graphic through full turns.
func (g *Graphic) Spin(cycles float64, duration float64) {
	g.runAction(protocol.Action{Kind: protocol.ActionSpin, Cycles: cycles, Duration: duration, Key: "spin"})
}

// Pulsate throbs the graphic's opacity.
func (g *Graphic) Pulsate(cycles float64, duration float64) {
	g.runAction(protocol.Action{Kind: protocol.ActionPulsate, Cycles: cycles, Duration: duration, Key: "pulsate"})
}

// FadeIn animates opacity to fully visible.
func (g *Graphic) FadeIn(duration float64) {
	g.state.Alpha = 1
	g.runAction(protocol.Action{Kind: protocol.ActionFadeIn, Duration: duration, Key: "fade"})
}

// FadeOut animates opacity to invisible.
func (g *Graphic) FadeOut(duration float64) {
	g.state.Alpha = 0
	g.runAction(protocol.Action{Kind: protocol.ActionFadeOut, Duration: duration, Key: "fade"})
}

// Shake jitters the graphic around its position.
func (g *Graphic) Shake(radius float64, duration float64) {
	g.runAction(protocol.Action{Kind: protocol.ActionShake, Radius: radius, Duration: duration, Key: "shake"})
}

// SpinAndPop spins the graphic up and pops it out of existence.
func (g *Graphic) SpinAndPop(duration float64) {
	g.runAction(protocol.Action{Kind: protocol.ActionSpinAndPop, Duration: duration, Key: "spinAndPop"})
	g.markRemovedAfterTerminal()
}

// SwirlAway spirals the graphic off the canvas and removes it.
func (g *Graphic) SwirlAway(radius float64, duration float64) {
	g.runAction(protocol.Action{Kind: protocol.ActionSwirlAway, Radius: radius, Duration: duration, Key: "swirlAway"})
	g.markRemovedAfterTerminal()
}

// MoveAndZap glides the graphic to a position while zapping it away.
func (g *Graphic) MoveAndZap(to core.Point, duration float64) {
	g.runAction(protocol.Action{Kind: protocol.ActionMoveAndZap, To: to, Duration: duration, Key: "moveAndZap"})
	g.markRemovedAfterTerminal()
}

// MoveAndRemove glides the graphic to a position, optionally plays a sound,
// and removes it on arrival.
func (g *Graphic) MoveAndRemove(to core.Point, duration float64, sound string) {
	g.emit(protocol.MoveAndRemove{ID: g.state.ID, Position: to, Duration: duration, Sound: sound})
	g.markRemovedAfterTerminal()
}

// markRemovedAfterTerminal makes the handle terminal after a terminal action
// was issued; the presentation side finalizes the node when the action
// completes.
func (g *Graphic) markRemovedAfterTerminal() {
	if g.suppress {
		return
	}
	g.removed = true
	g.scene.unregisterGraphic(g.state.ID)
}
