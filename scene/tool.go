package scene

import (
	"canvaslink/core"
	"canvaslink/protocol"
)

// ToolOptions is the capability bitset of a tool.
type ToolOptions uint32

const (
	// ToolDraggable lets the live view drag graphics while the tool is active.
	ToolDraggable ToolOptions = 1 << iota
	// ToolWantsTouchMove delivers touch-move events to OnTouchMoved.
	ToolWantsTouchMove
	// ToolWantsGraphicTouch delivers touches that hit a graphic to
	// OnGraphicTouched.
	ToolWantsGraphicTouch
)

// Tool is a named capability bundle the learner can select in the live view.
// Two tools are the same tool when their names match.
type Tool struct {
	Name    string
	Options ToolOptions

	// OnTouchMoved fires for touch events while this tool is selected and
	// ToolWantsTouchMove is set. The touch is enriched with the distance
	// from the last placement and the count of graphics placed during the
	// current gesture.
	OnTouchMoved func(core.Touch)

	// OnGraphicTouched fires when a touch hits a graphic and
	// ToolWantsGraphicTouch is set.
	OnGraphicTouched func(*Graphic)
}

// Equal reports tool identity, which is keyed on the display name.
func (t *Tool) Equal(other *Tool) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Name == other.Name
}

func (t *Tool) info() protocol.ToolInfo {
	return protocol.ToolInfo{Name: t.Name, Options: uint32(t.Options)}
}
