package liveview

import (
	"context"
	"fmt"
	"image"
	"testing"
	"time"

	"canvaslink/core"
	"canvaslink/protocol"
	"canvaslink/render/memory"
	"canvaslink/texture"
	"canvaslink/transport"
)

func testDispatcher() *Dispatcher {
	return NewDispatcher(Config{
		Backend:  memory.NewBackend(),
		Textures: texture.New(texture.Config{SizeLimitMB: 8}),
	})
}

func graphicState(d *Dispatcher, id string) (core.GraphicState, bool) {
	for _, state := range d.GraphicStates() {
		if state.ID == id {
			return state, true
		}
	}
	return core.GraphicState{}, false
}

func TestApply_CreateAndSet(t *testing.T) {
	d := testDispatcher()

	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g1", core.KindText)})
	d.Apply(protocol.SetText{ID: "g1", Text: "hello"})
	d.Apply(protocol.PlaceGraphic{ID: "g1", Position: core.Pt(10, 20)})

	state, ok := graphicState(d, "g1")
	if !ok {
		t.Fatal("graphic g1 missing after create")
	}
	if state.Text != "hello" || state.Position != core.Pt(10, 20) {
		t.Errorf("state = %+v", state)
	}
}

func TestApply_SetIsIdempotent(t *testing.T) {
	d := testDispatcher()
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g1", core.KindShape)})

	msg := protocol.SetRotation{ID: "g1", Radians: 1.5}
	d.Apply(msg)
	once, _ := graphicState(d, "g1")
	d.Apply(msg)
	twice, _ := graphicState(d, "g1")

	if once != twice {
		t.Errorf("idempotence violated: %+v vs %+v", once, twice)
	}
}

func TestApply_LastWriteWinsAcrossIDs(t *testing.T) {
	d := testDispatcher()
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("a", core.KindShape)})
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("b", core.KindShape)})

	for i := 0; i < 20; i++ {
		d.Apply(protocol.PlaceGraphic{ID: "a", Position: core.Pt(float64(i), 0)})
		d.Apply(protocol.PlaceGraphic{ID: "b", Position: core.Pt(0, float64(i))})
	}

	a, _ := graphicState(d, "a")
	b, _ := graphicState(d, "b")
	if a.Position != core.Pt(19, 0) {
		t.Errorf("a position = %v, want (19,0)", a.Position)
	}
	if b.Position != core.Pt(0, 19) {
		t.Errorf("b position = %v, want (0,19)", b.Position)
	}
}

func TestApply_ImplicitCreateOnFirstReference(t *testing.T) {
	d := testDispatcher()

	d.Apply(protocol.SetAlpha{ID: "lazy", Alpha: 0.3})

	state, ok := graphicState(d, "lazy")
	if !ok {
		t.Fatal("first reference did not create the graphic")
	}
	if state.Alpha != 0.3 {
		t.Errorf("alpha = %v, want 0.3", state.Alpha)
	}
}

func TestApply_RemovedIsTerminal(t *testing.T) {
	d := testDispatcher()

	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g1", core.KindShape)})
	d.Apply(protocol.RemoveGraphic{ID: "g1"})

	// Traffic for a removed id must be ignored, not resurrect the node.
	d.Apply(protocol.SetText{ID: "g1", Text: "ghost"})
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g1", core.KindShape)})

	if _, ok := graphicState(d, "g1"); ok {
		t.Error("removed graphic came back to life")
	}
}

func TestApply_UnrecognizedLeavesStateUntouched(t *testing.T) {
	d := testDispatcher()
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g1", core.KindShape)})
	before := d.GraphicStates()

	d.Apply(protocol.Decode([]byte(`{"type":"warpSpeed","payload":{"id":"g1"}}`)))

	after := d.GraphicStates()
	if len(before) != len(after) || before[0] != after[0] {
		t.Errorf("unrecognized message changed state: %+v -> %+v", before, after)
	}
}

func TestApply_ClearScene(t *testing.T) {
	d := testDispatcher()
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g1", core.KindShape)})
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g2", core.KindShape)})

	d.Apply(protocol.ClearScene{})

	if states := d.GraphicStates(); len(states) != 0 {
		t.Errorf("clearScene left %d graphics", len(states))
	}
	// Cleared ids are terminal too.
	d.Apply(protocol.SetText{ID: "g1", Text: "back"})
	if _, ok := graphicState(d, "g1"); ok {
		t.Error("cleared graphic came back to life")
	}
}

func TestApply_TerminalActionRemovesNode(t *testing.T) {
	d := testDispatcher()
	d.Apply(protocol.CreateNode{State: core.NewGraphicState("g1", core.KindShape)})

	d.Apply(protocol.MoveAndRemove{ID: "g1", Position: core.Pt(5, 5), Duration: 0})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := graphicState(d, "g1"); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("moveAndRemove did not remove the node")
}

func TestApply_ChromeState(t *testing.T) {
	d := testDispatcher()

	d.Apply(protocol.RegisterTools{Tools: []protocol.ToolInfo{{Name: "pen", Options: 3}}})
	d.Apply(protocol.HideTools{Hidden: true})
	d.Apply(protocol.SetButton{Name: "Go"})
	d.Apply(protocol.UseOverlay{ID: "grid"})
	d.Apply(protocol.RegisterTouchHandler{Enabled: true})

	chrome := d.Chrome()
	if len(chrome.Tools) != 1 || chrome.Tools[0].Name != "pen" {
		t.Errorf("tools = %+v", chrome.Tools)
	}
	if !chrome.ToolsHidden || chrome.Button != "Go" || chrome.Overlay != "grid" || !chrome.TouchHandler {
		t.Errorf("chrome = %+v", chrome)
	}

	// Replace semantics: a fresh registration discards the old list.
	d.Apply(protocol.RegisterTools{})
	if got := d.Chrome().Tools; len(got) != 0 {
		t.Errorf("tools after unregister = %+v, want empty", got)
	}
}

func receiveKind(t *testing.T, ch transport.Channel, want protocol.Kind) protocol.Message {
	t.Helper()
	select {
	case frame, ok := <-ch.Receive():
		if !ok {
			t.Fatal("channel closed while waiting for message")
		}
		msg := protocol.Decode(frame)
		if msg.MessageKind() != want {
			t.Fatalf("received %s, want %s", msg.MessageKind(), want)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
	return nil
}

func sendMsg(t *testing.T, ch transport.Channel, msg protocol.Message) {
	t.Helper()
	frame, err := protocol.Encode(msg)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := ch.Send(frame); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
}

func TestAttach_GetGraphicsRoundTrip(t *testing.T) {
	d := testDispatcher()
	host, logic := transport.Pair()
	d.Attach(host)
	defer logic.Close()

	state := core.NewGraphicState("g1", core.KindShape)
	sendMsg(t, logic, protocol.CreateNode{State: state})
	sendMsg(t, logic, protocol.PlaceGraphic{ID: "g1", Position: core.Pt(10, 20)})
	sendMsg(t, logic, protocol.GetGraphics{})

	reply := receiveKind(t, logic, protocol.KindGetGraphicsReply).(protocol.GetGraphicsReply)
	if len(reply.Graphics) != 1 {
		t.Fatalf("reply has %d graphics, want 1", len(reply.Graphics))
	}
	if reply.Graphics[0].ID != "g1" || reply.Graphics[0].Position != core.Pt(10, 20) {
		t.Errorf("reply graphic = %+v", reply.Graphics[0])
	}
}

func TestTouchGate_OneInFlight(t *testing.T) {
	d := testDispatcher()
	host, logic := transport.Pair()
	d.Attach(host)
	defer logic.Close()

	d.SubmitTouch(core.Touch{Position: core.Pt(1, 1)})
	d.SubmitTouch(core.Touch{Position: core.Pt(2, 2)})
	d.SubmitTouch(core.Touch{Position: core.Pt(3, 3)})

	first := receiveKind(t, logic, protocol.KindSceneTouchEvent).(protocol.SceneTouchEvent)
	if first.Touch.Position != core.Pt(1, 1) {
		t.Errorf("first touch = %v", first.Touch.Position)
	}

	// Nothing else may arrive before the ack.
	select {
	case frame := <-logic.Receive():
		t.Fatalf("received %s before ack", protocol.Decode(frame).MessageKind())
	case <-time.After(100 * time.Millisecond):
	}
	if d.PendingTouches() != 2 {
		t.Errorf("PendingTouches() = %d, want 2", d.PendingTouches())
	}

	sendMsg(t, logic, protocol.TouchAck{})
	second := receiveKind(t, logic, protocol.KindSceneTouchEvent).(protocol.SceneTouchEvent)
	if second.Touch.Position != core.Pt(2, 2) {
		t.Errorf("second touch = %v, want queued order", second.Touch.Position)
	}
}

func TestTouchGate_OverflowDropsOldest(t *testing.T) {
	d := testDispatcher()
	host, logic := transport.Pair()
	d.Attach(host)
	defer logic.Close()

	// One in flight, then fill the queue past its bound.
	for i := 0; i <= touchQueueLimit+5; i++ {
		d.SubmitTouch(core.Touch{Position: core.Pt(float64(i), 0)})
	}
	if got := d.PendingTouches(); got != touchQueueLimit {
		t.Errorf("PendingTouches() = %d, want %d", got, touchQueueLimit)
	}
}

func TestSessionLifecycle(t *testing.T) {
	d := testDispatcher()
	host, logic := transport.Pair()

	id := d.Attach(host)
	if id == "" || d.SessionID() != id {
		t.Fatalf("SessionID() = %q, want %q", d.SessionID(), id)
	}

	logic.Close()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && d.SessionID() != "" {
		time.Sleep(5 * time.Millisecond)
	}
	if d.SessionID() != "" {
		t.Error("session id survived channel close")
	}
}

type missingAssets struct{}

func (missingAssets) Image(ctx context.Context, name string) (image.Image, error) {
	return nil, fmt.Errorf("asset %s not found", name)
}

func (missingAssets) Sound(ctx context.Context, name string) ([]byte, error) {
	return nil, fmt.Errorf("asset %s not found", name)
}

func TestApplyImage_MissingAssetClears(t *testing.T) {
	d := NewDispatcher(Config{
		Backend:  memory.NewBackend(),
		Textures: texture.New(texture.Config{}),
		Assets:   missingAssets{},
	})
	state := core.NewGraphicState("g1", core.KindImage)
	d.Apply(protocol.CreateNode{State: state})

	d.Apply(protocol.SetImage{ID: "g1", Name: "ghost"})

	got, _ := graphicState(d, "g1")
	if got.Image != "" {
		t.Errorf("image = %q after failed load, want cleared", got.Image)
	}
}
