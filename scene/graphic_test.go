package scene

import (
	"math"
	"testing"
	"time"

	"canvaslink/core"
	"canvaslink/protocol"
	"canvaslink/transport"
)

func testScene(t *testing.T) (*Scene, transport.Channel) {
	t.Helper()
	local, remote := transport.Pair()
	s := NewScene(local)
	t.Cleanup(func() { s.Close() })
	return s, remote
}

func receiveMsg(t *testing.T, ch transport.Channel) protocol.Message {
	t.Helper()
	select {
	case frame, ok := <-ch.Receive():
		if !ok {
			t.Fatal("channel closed while waiting for message")
		}
		return protocol.Decode(frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func receiveKind(t *testing.T, ch transport.Channel, want protocol.Kind) protocol.Message {
	t.Helper()
	msg := receiveMsg(t, ch)
	if msg.MessageKind() != want {
		t.Fatalf("received %s, want %s", msg.MessageKind(), want)
	}
	return msg
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

func expectNothing(t *testing.T, ch transport.Channel, during time.Duration) {
	t.Helper()
	select {
	case frame := <-ch.Receive():
		t.Fatalf("unexpected %s on the wire", protocol.Decode(frame).MessageKind())
	case <-time.After(during):
	}
}

func TestNewGraphic_EmitsCreateWithFreshID(t *testing.T) {
	s, remote := testScene(t)

	a := s.NewGraphic(core.KindShape)
	b := s.NewGraphic(core.KindText)

	first := receiveKind(t, remote, protocol.KindCreateNode).(protocol.CreateNode)
	second := receiveKind(t, remote, protocol.KindCreateNode).(protocol.CreateNode)

	if first.State.ID != a.ID() || second.State.ID != b.ID() {
		t.Errorf("wire ids (%s,%s) do not match proxies (%s,%s)",
			first.State.ID, second.State.ID, a.ID(), b.ID())
	}
	if a.ID() == b.ID() {
		t.Error("two graphics share an id")
	}
	if second.State.Kind != core.KindText {
		t.Errorf("kind = %s, want text", second.State.Kind)
	}
}

func TestGraphic_EachMutationEmitsOneMessage(t *testing.T) {
	s, remote := testScene(t)
	g := s.NewGraphic(core.KindText)
	receiveKind(t, remote, protocol.KindCreateNode)

	g.SetText("hi")
	g.SetAlpha(0.5)
	g.Place(core.Pt(3, 4))

	text := receiveKind(t, remote, protocol.KindSetText).(protocol.SetText)
	if text.ID != g.ID() || text.Text != "hi" {
		t.Errorf("setText = %+v", text)
	}
	alpha := receiveKind(t, remote, protocol.KindSetAlpha).(protocol.SetAlpha)
	if alpha.Alpha != 0.5 {
		t.Errorf("alpha = %v", alpha.Alpha)
	}
	place := receiveKind(t, remote, protocol.KindPlaceGraphic).(protocol.PlaceGraphic)
	if place.Position != core.Pt(3, 4) || !place.IsPrintable {
		t.Errorf("place = %+v", place)
	}
	expectNothing(t, remote, 100*time.Millisecond)
}

func TestSetRotation_WireCarriesRadians(t *testing.T) {
	s, remote := testScene(t)
	g := s.NewGraphic(core.KindShape)
	receiveKind(t, remote, protocol.KindCreateNode)

	g.SetRotation(180)

	msg := receiveKind(t, remote, protocol.KindSetRotation).(protocol.SetRotation)
	if math.Abs(msg.Radians-math.Pi) > 1e-9 {
		t.Errorf("radians = %v, want pi", msg.Radians)
	}
}

func TestRemove_IsTerminal(t *testing.T) {
	s, remote := testScene(t)
	g := s.NewGraphic(core.KindShape)
	receiveKind(t, remote, protocol.KindCreateNode)

	g.Remove()
	receiveKind(t, remote, protocol.KindRemoveGraphic)

	g.SetText("ghost")
	g.Move(core.Pt(1, 1), 0.1)
	g.Remove()
	expectNothing(t, remote, 100*time.Millisecond)

	if _, ok := s.Graphic(g.ID()); ok {
		t.Error("removed graphic still registered")
	}
}

func TestTerminalAction_MakesHandleTerminal(t *testing.T) {
	s, remote := testScene(t)
	g := s.NewGraphic(core.KindShape)
	receiveKind(t, remote, protocol.KindCreateNode)

	g.SpinAndPop(0.5)
	run := receiveKind(t, remote, protocol.KindRunAction).(protocol.RunAction)
	if !run.Action.Terminal() {
		t.Errorf("spinAndPop action not terminal: %+v", run.Action)
	}

	g.SetText("after the pop")
	expectNothing(t, remote, 100*time.Millisecond)
}

func TestFades_ShareOneActionKey(t *testing.T) {
	s, remote := testScene(t)
	g := s.NewGraphic(core.KindShape)
	receiveKind(t, remote, protocol.KindCreateNode)

	g.FadeOut(1)
	g.FadeIn(1)

	out := receiveKind(t, remote, protocol.KindRunAction).(protocol.RunAction)
	in := receiveKind(t, remote, protocol.KindRunAction).(protocol.RunAction)
	if out.Action.Key != in.Action.Key {
		t.Errorf("fade keys differ (%q vs %q); fades must replace each other", out.Action.Key, in.Action.Key)
	}
}

func TestEqual_KeyedOnID(t *testing.T) {
	s, remote := testScene(t)
	g := s.NewGraphic(core.KindShape)
	receiveKind(t, remote, protocol.KindCreateNode)

	same := newSuppressedGraphic(s, g.State())
	other := s.NewGraphic(core.KindShape)

	if !g.Equal(same) {
		t.Error("proxies with the same id compare unequal")
	}
	if g.Equal(other) {
		t.Error("distinct graphics compare equal")
	}
	var nilGraphic *Graphic
	if g.Equal(nilGraphic) || !nilGraphic.Equal(nil) {
		t.Error("nil comparison rules violated")
	}
}
