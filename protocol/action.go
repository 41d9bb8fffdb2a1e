package protocol

import "canvaslink/core"

// ActionKind names one timed visual effect a node can run.
type ActionKind string

const (
	ActionMove          ActionKind = "move"
	ActionMoveBy        ActionKind = "moveBy"
	ActionFadeIn        ActionKind = "fadeIn"
	ActionFadeOut       ActionKind = "fadeOut"
	ActionRotate        ActionKind = "rotate"
	ActionScale         ActionKind = "scale"
	ActionSpin          ActionKind = "spin"
	ActionPulsate       ActionKind = "pulsate"
	ActionShake         ActionKind = "shake"
	ActionOrbit         ActionKind = "orbit"
	ActionSwirlAway     ActionKind = "swirlAway"
	ActionSpinAndPop    ActionKind = "spinAndPop"
	ActionMoveAndZap    ActionKind = "moveAndZap"
	ActionMoveAndRemove ActionKind = "moveAndRemove"
)

// Action is a timed visual effect. Actions sharing a non-empty Key on the same
// node are mutually exclusive: starting one cancels the running one. An empty
// Key runs independently of everything else.
type Action struct {
	Kind     ActionKind `json:"kind"`
	Duration float64    `json:"duration,omitempty"` // seconds
	To       core.Point `json:"to"`
	By       core.Point `json:"by"`
	Angle    float64    `json:"angle,omitempty"` // radians
	Scale    float64    `json:"scale,omitempty"`
	Radius   float64    `json:"radius,omitempty"`
	Cycles   float64    `json:"cycles,omitempty"`
	Sound    string     `json:"sound,omitempty"`
	Key      string     `json:"key,omitempty"`
}

// Terminal reports whether the action removes its node on completion.
func (a Action) Terminal() bool {
	switch a.Kind {
	case ActionSwirlAway, ActionSpinAndPop, ActionMoveAndZap, ActionMoveAndRemove:
		return true
	}
	return false
}
