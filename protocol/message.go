// Package protocol defines the closed set of commands exchanged between the
// logic side and the presentation side, and their wire codec. Every message is
// a tagged variant; decoding is total and yields Unrecognized for anything
// malformed or unknown so that a session never dies on bad input.
package protocol

import "canvaslink/core"

// Kind is the wire tag identifying one message variant.
type Kind string

const (
	KindCreateNode           Kind = "createNode"
	KindSetText              Kind = "setText"
	KindSetFont              Kind = "setFont"
	KindSetFontSize          Kind = "setFontSize"
	KindSetTextColor         Kind = "setTextColor"
	KindSetAlpha             Kind = "setAlpha"
	KindSetRotation          Kind = "setRotation"
	KindSetScale             Kind = "setScale"
	KindSetVisible           Kind = "setVisible"
	KindSetImage             Kind = "setImage"
	KindRunAction            Kind = "runAction"
	KindPlaceGraphic         Kind = "placeGraphic"
	KindMoveAndRemove        Kind = "moveAndRemove"
	KindRemoveGraphic        Kind = "removeGraphic"
	KindClearScene           Kind = "clearScene"
	KindRegisterTools        Kind = "registerTools"
	KindIncludeSystemTools   Kind = "includeSystemTools"
	KindHideTools            Kind = "hideTools"
	KindSetButton            Kind = "setButton"
	KindRegisterTouchHandler Kind = "registerTouchHandler"
	KindSceneTouchEvent      Kind = "sceneTouchEvent"
	KindTouchAck             Kind = "touchAck"
	KindToolSelected         Kind = "toolSelected"
	KindActionButtonPressed  Kind = "actionButtonPressed"
	KindGetGraphics          Kind = "getGraphics"
	KindGetGraphicsReply     Kind = "getGraphicsReply"
	KindSetAssessment        Kind = "setAssessment"
	KindTrigger              Kind = "trigger"
	KindUseOverlay           Kind = "useOverlay"
	KindPlaySound            Kind = "playSound"
	KindUnrecognized         Kind = "unrecognized"
)

// Message is one command in the bridge protocol. The set of implementations
// is closed; Decode only ever produces the variants defined in this package.
type Message interface {
	MessageKind() Kind
}

// ToolInfo is the wire description of a registered tool.
type ToolInfo struct {
	Name    string `json:"name"`
	Options uint32 `json:"options"`
}

type (
	// CreateNode announces a fresh graphic and its initial state.
	CreateNode struct {
		State core.GraphicState `json:"state"`
	}

	SetText struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}

	SetFont struct {
		ID   string `json:"id"`
		Font string `json:"font"`
	}

	SetFontSize struct {
		ID   string  `json:"id"`
		Size float64 `json:"size"`
	}

	SetTextColor struct {
		ID    string     `json:"id"`
		Color core.Color `json:"color"`
	}

	SetAlpha struct {
		ID    string  `json:"id"`
		Alpha float64 `json:"alpha"`
	}

	// SetRotation carries radians; the degree mapping is a logic-side API
	// convenience and never appears on the wire.
	SetRotation struct {
		ID      string  `json:"id"`
		Radians float64 `json:"radians"`
	}

	SetScale struct {
		ID string  `json:"id"`
		X  float64 `json:"x"`
		Y  float64 `json:"y"`
	}

	SetVisible struct {
		ID      string `json:"id"`
		Visible bool   `json:"visible"`
	}

	// SetImage with an empty Name clears the node's texture.
	SetImage struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	RunAction struct {
		ID     string `json:"id"`
		Action Action `json:"action"`
	}

	PlaceGraphic struct {
		ID          string     `json:"id"`
		Position    core.Point `json:"position"`
		IsPrintable bool       `json:"isPrintable"`
	}

	MoveAndRemove struct {
		ID       string     `json:"id"`
		Position core.Point `json:"position"`
		Duration float64    `json:"duration"`
		Sound    string     `json:"sound,omitempty"`
	}

	RemoveGraphic struct {
		ID string `json:"id"`
	}

	ClearScene struct{}

	// RegisterTools with a nil/empty list unregisters everything.
	RegisterTools struct {
		Tools []ToolInfo `json:"tools,omitempty"`
	}

	IncludeSystemTools struct {
		Enabled bool `json:"enabled"`
	}

	HideTools struct {
		Hidden bool `json:"hidden"`
	}

	SetButton struct {
		Name string `json:"name"`
	}

	RegisterTouchHandler struct {
		Enabled bool `json:"enabled"`
	}

	SceneTouchEvent struct {
		Touch core.Touch `json:"touch"`
	}

	// TouchAck releases the presentation side's touch gate; at most one
	// SceneTouchEvent is in flight until it arrives.
	TouchAck struct{}

	ToolSelected struct {
		Name string `json:"name"`
	}

	ActionButtonPressed struct{}

	GetGraphics struct{}

	GetGraphicsReply struct {
		Graphics []core.GraphicState `json:"graphics,omitempty"`
	}

	SetAssessment struct {
		Status  core.AssessmentStatus `json:"status"`
		Message string                `json:"message,omitempty"`
	}

	Trigger struct {
		Phase   core.AssessmentPhase `json:"phase"`
		Context string               `json:"context,omitempty"`
	}

	UseOverlay struct {
		ID string `json:"id"`
	}

	PlaySound struct {
		Name string `json:"name"`
	}

	// Unrecognized is the decode outcome for unknown tags and malformed
	// payloads. Dispatchers treat it as a logged no-op.
	Unrecognized struct {
		Tag    string
		Reason string
	}
)

func (CreateNode) MessageKind() Kind           { return KindCreateNode }
func (SetText) MessageKind() Kind              { return KindSetText }
func (SetFont) MessageKind() Kind              { return KindSetFont }
func (SetFontSize) MessageKind() Kind          { return KindSetFontSize }
func (SetTextColor) MessageKind() Kind         { return KindSetTextColor }
func (SetAlpha) MessageKind() Kind             { return KindSetAlpha }
func (SetRotation) MessageKind() Kind          { return KindSetRotation }
func (SetScale) MessageKind() Kind             { return KindSetScale }
func (SetVisible) MessageKind() Kind           { return KindSetVisible }
func (SetImage) MessageKind() Kind             { return KindSetImage }
func (RunAction) MessageKind() Kind            { return KindRunAction }
func (PlaceGraphic) MessageKind() Kind         { return KindPlaceGraphic }
func (MoveAndRemove) MessageKind() Kind        { return KindMoveAndRemove }
func (RemoveGraphic) MessageKind() Kind        { return KindRemoveGraphic }
func (ClearScene) MessageKind() Kind           { return KindClearScene }
func (RegisterTools) MessageKind() Kind        { return KindRegisterTools }
func (IncludeSystemTools) MessageKind() Kind   { return KindIncludeSystemTools }
func (HideTools) MessageKind() Kind            { return KindHideTools }
func (SetButton) MessageKind() Kind            { return KindSetButton }
func (RegisterTouchHandler) MessageKind() Kind { return KindRegisterTouchHandler }
func (SceneTouchEvent) MessageKind() Kind      { return KindSceneTouchEvent }
func (TouchAck) MessageKind() Kind             { return KindTouchAck }
func (ToolSelected) MessageKind() Kind         { return KindToolSelected }
func (ActionButtonPressed) MessageKind() Kind  { return KindActionButtonPressed }
func (GetGraphics) MessageKind() Kind          { return KindGetGraphics }
func (GetGraphicsReply) MessageKind() Kind     { return KindGetGraphicsReply }
func (SetAssessment) MessageKind() Kind        { return KindSetAssessment }
func (Trigger) MessageKind() Kind              { return KindTrigger }
func (UseOverlay) MessageKind() Kind           { return KindUseOverlay }
func (PlaySound) MessageKind() Kind            { return KindPlaySound }
func (Unrecognized) MessageKind() Kind         { return KindUnrecognized }
