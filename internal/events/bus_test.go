package events

import "testing"

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	var got []Completion
	unsub := bus.Subscribe(func(c Completion) { got = append(got, c) })

	ev := Completion{PlaylistID: "pl", StudentID: "stu", ItemID: "item", Kind: KindCourse}
	bus.Publish(ev)
	if len(got) != 1 || got[0] != ev {
		t.Fatalf("got %+v, want one %+v", got, ev)
	}

	unsub()
	bus.Publish(ev)
	if len(got) != 1 {
		t.Fatalf("unsubscribed handler still invoked")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()
	a, b := 0, 0
	bus.Subscribe(func(Completion) { a++ })
	bus.Subscribe(func(Completion) { b++ })
	bus.Publish(Completion{ItemID: "x", Kind: KindTest})
	if a != 1 || b != 1 {
		t.Fatalf("delivery counts a=%d b=%d, want 1/1", a, b)
	}
}
