package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the self-describing wire form of a message: the tag is enough
// to route a variant without any external schema.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode serializes a message into its envelope bytes. Encoding only fails
// for variants outside the closed set, which indicates a programming error.
func Encode(msg Message) ([]byte, error) {
	kind := msg.MessageKind()
	if kind == KindUnrecognized {
		return nil, fmt.Errorf("cannot encode an unrecognized message")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	// Empty-payload variants marshal as {}; keep the envelope lean.
	if string(payload) == "{}" {
		payload = nil
	}
	return json.Marshal(Envelope{Type: kind, Payload: payload})
}

// Decode parses envelope bytes back into a message. Decode is total: a
// malformed envelope, unknown tag, or bad payload produces Unrecognized,
// never an error, so callers can treat anything they do not understand as a
// no-op instead of a session failure.
func Decode(data []byte) Message {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Unrecognized{Reason: "malformed envelope: " + err.Error()}
	}
	if env.Type == "" {
		return Unrecognized{Reason: "missing type tag"}
	}

	msg := emptyMessage(env.Type)
	if msg == nil {
		return Unrecognized{Tag: string(env.Type), Reason: "unknown type tag"}
	}
	if len(env.Payload) == 0 {
		return deref(msg)
	}
	if err := json.Unmarshal(env.Payload, msg); err != nil {
		return Unrecognized{Tag: string(env.Type), Reason: "malformed payload: " + err.Error()}
	}
	return deref(msg)
}

// emptyMessage returns a pointer to a zero value of the variant named by the
// tag, or nil for tags outside the closed set.
func emptyMessage(kind Kind) any {
	switch kind {
	case KindCreateNode:
		return &CreateNode{}
	case KindSetText:
		return &SetText{}
	case KindSetFont:
		return &SetFont{}
	case KindSetFontSize:
		return &SetFontSize{}
	case KindSetTextColor:
		return &SetTextColor{}
	case KindSetAlpha:
		return &SetAlpha{}
	case KindSetRotation:
		return &SetRotation{}
	case KindSetScale:
		return &SetScale{}
	case KindSetVisible:
		return &SetVisible{}
	case KindSetImage:
		return &SetImage{}
	case KindRunAction:
		return &RunAction{}
	case KindPlaceGraphic:
		return &PlaceGraphic{}
	case KindMoveAndRemove:
		return &MoveAndRemove{}
	case KindRemoveGraphic:
		return &RemoveGraphic{}
	case KindClearScene:
		return &ClearScene{}
	case KindRegisterTools:
		return &RegisterTools{}
	case KindIncludeSystemTools:
		return &IncludeSystemTools{}
	case KindHideTools:
		return &HideTools{}
	case KindSetButton:
		return &SetButton{}
	case KindRegisterTouchHandler:
		return &RegisterTouchHandler{}
	case KindSceneTouchEvent:
		return &SceneTouchEvent{}
	case KindTouchAck:
		return &TouchAck{}
	case KindToolSelected:
		return &ToolSelected{}
	case KindActionButtonPressed:
		return &ActionButtonPressed{}
	case KindGetGraphics:
		return &GetGraphics{}
	case KindGetGraphicsReply:
		return &GetGraphicsReply{}
	case KindSetAssessment:
		return &SetAssessment{}
	case KindTrigger:
		return &Trigger{}
	case KindUseOverlay:
		return &UseOverlay{}
	case KindPlaySound:
		return &PlaySound{}
	}
	return nil
}

func deref(msg any) Message {
	switch m := msg.(type) {
	case *CreateNode:
		return *m
	case *SetText:
		return *m
	case *SetFont:
		return *m
	case *SetFontSize:
		return *m
	case *SetTextColor:
		return *m
	case *SetAlpha:
		return *m
	case *SetRotation:
		return *m
	case *SetScale:
		return *m
	case *SetVisible:
		return *m
	case *SetImage:
		return *m
	case *RunAction:
		return *m
	case *PlaceGraphic:
		return *m
	case *MoveAndRemove:
		return *m
	case *RemoveGraphic:
		return *m
	case *ClearScene:
		return *m
	case *RegisterTools:
		return *m
	case *IncludeSystemTools:
		return *m
	case *HideTools:
		return *m
	case *SetButton:
		return *m
	case *RegisterTouchHandler:
		return *m
	case *SceneTouchEvent:
		return *m
	case *TouchAck:
		return *m
	case *ToolSelected:
		return *m
	case *ActionButtonPressed:
		return *m
	case *GetGraphics:
		return *m
	case *GetGraphicsReply:
		return *m
	case *SetAssessment:
		return *m
	case *Trigger:
		return *m
	case *UseOverlay:
		return *m
	case *PlaySound:
		return *m
	}
	return Unrecognized{Reason: "internal: unhandled variant"}
}
