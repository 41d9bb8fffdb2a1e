package core

import (
	"context"
	"image"
)

type (
	// GraphicKind distinguishes what a graphic primarily displays.
	GraphicKind string

	// GraphicState is the transferable snapshot of one graphic. It is the
	// payload of create and placement messages and of graphics-query replies;
	// both sides of the bridge keep their own copy and converge on it through
	// message delivery alone.
	GraphicState struct {
		ID       string      `json:"id"`
		Kind     GraphicKind `json:"kind"`
		Text     string      `json:"text,omitempty"`
		Font     string      `json:"font,omitempty"`
		FontSize float64     `json:"fontSize,omitempty"`
		Color    Color       `json:"color"`
		Alpha    float64     `json:"alpha"`
		Rotation float64     `json:"rotation"` // radians
		Position Point       `json:"position"`
		XScale   float64     `json:"xScale"`
		YScale   float64     `json:"yScale"`
		Image    string      `json:"image,omitempty"`
		Hidden   bool        `json:"hidden,omitempty"`
	}

	// Touch describes one touch interaction on the live view canvas.
	// PreviousPlaceDistance and NumTouchesPlaced are filled in on the logic
	// side while dispatching, not on the wire from the presentation side.
	Touch struct {
		Position              Point  `json:"position"`
		FirstTouch            bool   `json:"firstTouch"`
		TouchedGraphicID      string `json:"touchedGraphicId,omitempty"`
		PreviousPlaceDistance float64
		NumTouchesPlaced      int
	}

	// AssessmentStatus is the outcome published to the host page.
	AssessmentStatus string

	// AssessmentPhase is the lifecycle phase of an assessment trigger.
	AssessmentPhase string

	// AssetStore resolves named image and sound assets. The runtime never
	// embeds asset bytes; missing assets are reported as errors and mapped to
	// benign outcomes (image cleared, sound skipped) by callers.
	AssetStore interface {
		Image(ctx context.Context, name string) (image.Image, error)
		Sound(ctx context.Context, name string) ([]byte, error)
	}

	// SoundPlayer plays a named sound asset. Playback failures are the
	// player's to report and the caller's to ignore.
	SoundPlayer interface {
		Play(ctx context.Context, name string) error
	}

	// StatusSink receives assessment outcomes and keep-alive hints from the
	// runtime. The host page lifecycle is a collaborator, not part of the core.
	StatusSink interface {
		PublishStatus(status AssessmentStatus, message string)
		KeepAlive()
	}
)

const (
	KindShape GraphicKind = "shape"
	KindText  GraphicKind = "text"
	KindImage GraphicKind = "image"

	StatusPass      AssessmentStatus = "pass"
	StatusFail      AssessmentStatus = "fail"
	StatusUncertain AssessmentStatus = "uncertain"

	PhaseStart    AssessmentPhase = "start"
	PhaseStop     AssessmentPhase = "stop"
	PhaseEvaluate AssessmentPhase = "evaluate"
)

// NewGraphicState returns a state with the neutral defaults every node starts
// from: fully opaque, unit scale, origin position.
func NewGraphicState(id string, kind GraphicKind) GraphicState {
	return GraphicState{
		ID:     id,
		Kind:   kind,
		Color:  Black,
		Alpha:  1,
		XScale: 1,
		YScale: 1,
	}
}
