package liveview

import (
	"math"
	"testing"

	"canvaslink/core"
	"canvaslink/protocol"
)

func startState() core.GraphicState {
	state := core.NewGraphicState("g1", core.KindShape)
	state.Position = core.Pt(10, 10)
	return state
}

func TestInterpolate_MoveTerminal(t *testing.T) {
	state := startState()
	action := protocol.Action{Kind: protocol.ActionMove, To: core.Pt(50, -20)}

	interpolate(&state, startState(), action, 1)
	if state.Position != core.Pt(50, -20) {
		t.Errorf("terminal position = %v, want (50,-20)", state.Position)
	}

	// Terminal state must be stable under repeated application.
	interpolate(&state, startState(), action, 1)
	if state.Position != core.Pt(50, -20) {
		t.Errorf("repeated terminal application moved node to %v", state.Position)
	}
}

func TestInterpolate_MoveMidpoint(t *testing.T) {
	state := startState()
	interpolate(&state, startState(), protocol.Action{Kind: protocol.ActionMove, To: core.Pt(20, 10)}, 0.5)
	if state.Position != core.Pt(15, 10) {
		t.Errorf("midpoint position = %v, want (15,10)", state.Position)
	}
}

func TestInterpolate_MoveBy(t *testing.T) {
	state := startState()
	interpolate(&state, startState(), protocol.Action{Kind: protocol.ActionMoveBy, By: core.Pt(5, -5)}, 1)
	if state.Position != core.Pt(15, 5) {
		t.Errorf("moveBy terminal = %v, want (15,5)", state.Position)
	}
}

func TestInterpolate_Fades(t *testing.T) {
	state := startState()
	state.Alpha = 0.4
	start := state

	interpolate(&state, start, protocol.Action{Kind: protocol.ActionFadeIn}, 1)
	if state.Alpha != 1 {
		t.Errorf("fadeIn terminal alpha = %v, want 1", state.Alpha)
	}

	interpolate(&state, start, protocol.Action{Kind: protocol.ActionFadeOut}, 1)
	if state.Alpha != 0 {
		t.Errorf("fadeOut terminal alpha = %v, want 0", state.Alpha)
	}
}

func TestInterpolate_OrbitReturnsHome(t *testing.T) {
	start := startState()
	state := start

	action := protocol.Action{Kind: protocol.ActionOrbit, To: core.Pt(0, 0), Cycles: 2}
	interpolate(&state, start, action, 1)
	if state.Position != start.Position {
		t.Errorf("orbit terminal = %v, want start %v", state.Position, start.Position)
	}

	// Mid-orbit the node is off its start position but at constant radius.
	state = start
	interpolate(&state, start, action, 0.1)
	if state.Position == start.Position {
		t.Error("orbit did not move the node mid-flight")
	}
	radius := start.Position.Distance(core.Pt(0, 0))
	got := state.Position.Distance(core.Pt(0, 0))
	if math.Abs(got-radius) > 1e-9 {
		t.Errorf("orbit radius drifted: %v, want %v", got, radius)
	}
}

func TestInterpolate_ShakeAndPulsateSettle(t *testing.T) {
	start := startState()
	start.Alpha = 0.8

	state := start
	interpolate(&state, start, protocol.Action{Kind: protocol.ActionShake, Radius: 10}, 1)
	if state.Position != start.Position {
		t.Errorf("shake terminal = %v, want start", state.Position)
	}

	state = start
	interpolate(&state, start, protocol.Action{Kind: protocol.ActionPulsate, Cycles: 3}, 1)
	if state.Alpha != start.Alpha {
		t.Errorf("pulsate terminal alpha = %v, want %v", state.Alpha, start.Alpha)
	}
}

func TestInterpolate_TerminalKindsEndInvisible(t *testing.T) {
	for _, kind := range []protocol.ActionKind{protocol.ActionSwirlAway, protocol.ActionMoveAndZap} {
		state := startState()
		interpolate(&state, startState(), protocol.Action{Kind: kind, To: core.Pt(0, 0)}, 1)
		if state.Alpha != 0 {
			t.Errorf("%s terminal alpha = %v, want 0", kind, state.Alpha)
		}
	}

	state := startState()
	interpolate(&state, startState(), protocol.Action{Kind: protocol.ActionSpinAndPop}, 1)
	if state.XScale != 0 || state.YScale != 0 {
		t.Errorf("spinAndPop terminal scale = %v,%v, want 0,0", state.XScale, state.YScale)
	}
}

func TestInterpolate_Spin(t *testing.T) {
	state := startState()
	interpolate(&state, startState(), protocol.Action{Kind: protocol.ActionSpin, Cycles: 2}, 1)
	want := 4 * math.Pi
	if math.Abs(state.Rotation-want) > 1e-9 {
		t.Errorf("spin terminal rotation = %v, want %v", state.Rotation, want)
	}
}
