package liveview

import (
	"math"
	"sync"
	"time"

	"canvaslink/core"
	"canvaslink/protocol"
)

// frameInterval is the interpolation step for running actions.
const frameInterval = 16 * time.Millisecond

// runningAction drives one timed effect on one graphic. Cancellation and
// completion are mutually exclusive: whichever fires first wins, so a
// same-key replacement can never produce a second completion.
type runningAction struct {
	cancel chan struct{}
	once   sync.Once
}

func newRunningAction() *runningAction {
	return &runningAction{cancel: make(chan struct{})}
}

// stop cancels the action in place. The graphic keeps whatever interpolated
// values it currently has; the replacement action owns the terminal state.
func (ra *runningAction) stop() {
	ra.once.Do(func() { close(ra.cancel) })
}

func (ra *runningAction) run(g *Graphic, start core.GraphicState, action protocol.Action, finish func(completed bool)) {
	duration := time.Duration(action.Duration * float64(time.Second))
	if duration <= 0 {
		ra.settle(g, start, action, finish)
		return
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	startedAt := time.Now()

	for {
		select {
		case <-ra.cancel:
			finish(false)
			return
		case now := <-ticker.C:
			t := float64(now.Sub(startedAt)) / float64(duration)
			if t >= 1 {
				ra.settle(g, start, action, finish)
				return
			}
			// Skip the stale write if a replacement raced in.
			select {
			case <-ra.cancel:
				finish(false)
				return
			default:
			}
			g.mutate(func(s *core.GraphicState) { interpolate(s, start, action, t) })
		}
	}
}

// settle applies the terminal property state and reports completion, unless
// a cancellation won the race.
func (ra *runningAction) settle(g *Graphic, start core.GraphicState, action protocol.Action, finish func(completed bool)) {
	completed := false
	ra.once.Do(func() {
		g.mutate(func(s *core.GraphicState) { interpolate(s, start, action, 1) })
		completed = true
	})
	finish(completed)
}

// interpolate writes the state of an action at progress t in [0,1] relative
// to the captured start state. t=1 is the terminal state and must be stable
// under repeated application.
func interpolate(s *core.GraphicState, start core.GraphicState, action protocol.Action, t float64) {
	switch action.Kind {
	case protocol.ActionMove, protocol.ActionMoveAndRemove:
		s.Position = start.Position.Lerp(action.To, t)

	case protocol.ActionMoveBy:
		s.Position = start.Position.Lerp(start.Position.Add(action.By), t)

	case protocol.ActionFadeIn:
		s.Alpha = start.Alpha + (1-start.Alpha)*t

	case protocol.ActionFadeOut:
		s.Alpha = start.Alpha * (1 - t)

	case protocol.ActionRotate:
		s.Rotation = start.Rotation + action.Angle*t

	case protocol.ActionScale:
		s.XScale = start.XScale + (action.Scale-start.XScale)*t
		s.YScale = start.YScale + (action.Scale-start.YScale)*t

	case protocol.ActionSpin:
		s.Rotation = start.Rotation + 2*math.Pi*cyclesOrOne(action)*t

	case protocol.ActionPulsate:
		// Oscillates alpha and returns to the starting value at t=1.
		if t >= 1 {
			s.Alpha = start.Alpha
		} else {
			s.Alpha = start.Alpha * (0.6 + 0.4*math.Cos(2*math.Pi*cyclesOrOne(action)*t))
		}

	case protocol.ActionShake:
		// Jitters around the start position and returns to it at t=1.
		if t >= 1 {
			s.Position = start.Position
		} else {
			amplitude := radiusOrDefault(action, 5)
			offset := amplitude * math.Sin(2*math.Pi*8*t) * (1 - t)
			s.Position = start.Position.Add(core.Pt(offset, 0))
		}

	case protocol.ActionOrbit:
		// Circles the center in action.To and ends back where it began
		// after a whole number of cycles.
		if t >= 1 {
			s.Position = start.Position
		} else {
			radius := start.Position.Distance(action.To)
			base := math.Atan2(start.Position.Y-action.To.Y, start.Position.X-action.To.X)
			angle := base + 2*math.Pi*cyclesOrOne(action)*t
			s.Position = action.To.Add(core.Pt(radius*math.Cos(angle), radius*math.Sin(angle)))
		}

	case protocol.ActionSwirlAway:
		// Spiral outward while fading to nothing.
		angle := start.Rotation + 4*math.Pi*t
		drift := radiusOrDefault(action, 100) * t
		s.Rotation = angle
		s.Position = start.Position.Add(core.Pt(drift*math.Cos(angle), drift*math.Sin(angle)))
		s.Alpha = start.Alpha * (1 - t)

	case protocol.ActionSpinAndPop:
		s.Rotation = start.Rotation + 4*math.Pi*t
		if t < 0.7 {
			grow := 1 + 0.5*(t/0.7)
			s.XScale = start.XScale * grow
			s.YScale = start.YScale * grow
		} else {
			shrink := 1.5 * (1 - t) / 0.3
			s.XScale = start.XScale * shrink
			s.YScale = start.YScale * shrink
		}
		if t >= 1 {
			s.XScale = 0
			s.YScale = 0
			s.Alpha = 0
		}

	case protocol.ActionMoveAndZap:
		s.Position = start.Position.Lerp(action.To, t)
		s.Alpha = start.Alpha * (1 - t)
	}
}

func cyclesOrOne(action protocol.Action) float64 {
	if action.Cycles > 0 {
		return action.Cycles
	}
	return 1
}

func radiusOrDefault(action protocol.Action, fallback float64) float64 {
	if action.Radius > 0 {
		return action.Radius
	}
	return fallback
}
