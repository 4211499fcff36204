package core

import "testing"

func TestEventSystemDispatch(t *testing.T) {
	es := NewEventSystem()

	var got [2]uint32
	listener := &struct{}{}
	ok := es.Register(EVENT_CODE_RESIZED, listener, func(code SystemEventCode, sender interface{}, data EventContext) bool {
		got[0], got[1] = data.Data.U32[0], data.Data.U32[1]
		return true
	})
	if !ok {
		t.Fatal("register failed")
	}
	if es.Register(EVENT_CODE_RESIZED, listener, nil) {
		t.Fatal("duplicate registration must be rejected")
	}

	ctx := EventContext{}
	ctx.Data.U32[0] = 1024
	ctx.Data.U32[1] = 768
	if !es.Fire(EVENT_CODE_RESIZED, nil, ctx) {
		t.Fatal("event should be handled")
	}
	if got != [2]uint32{1024, 768} {
		t.Fatalf("listener saw %v", got)
	}

	if es.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}) {
		t.Fatal("no listener for quit, nothing should handle it")
	}

	if !es.Unregister(EVENT_CODE_RESIZED, listener) {
		t.Fatal("unregister failed")
	}
	if es.Fire(EVENT_CODE_RESIZED, nil, ctx) {
		t.Fatal("unregistered listener was still called")
	}
}

func TestEventSystemStopsAtFirstHandler(t *testing.T) {
	es := NewEventSystem()
	calls := 0
	es.Register(EVENT_CODE_KEY_PRESSED, "first", func(SystemEventCode, interface{}, EventContext) bool {
		calls++
		return true
	})
	es.Register(EVENT_CODE_KEY_PRESSED, "second", func(SystemEventCode, interface{}, EventContext) bool {
		calls++
		return true
	})
	es.Fire(EVENT_CODE_KEY_PRESSED, nil, EventContext{})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
