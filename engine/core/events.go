package core

import "sync"

type EventContext struct {
	Data struct {
		I32 [4]int32
		U32 [4]uint32
		F32 [4]float32
		U16 [8]uint16
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed.
	/* Context usage:
	 * u16 key_code = data.Data.U16[0];
	 */
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released.
	/* Context usage:
	 * u16 key_code = data.Data.U16[0];
	 */
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Framebuffer resized from the OS.
	/* Context usage:
	 * u32 width = data.Data.U32[0];
	 * u32 height = data.Data.U32[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Should return true if handled. Handled events are not passed to later listeners.
type FnOnEvent func(code SystemEventCode, sender interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type EventSystem struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]registeredEvent),
	}
}

// Register listens for events sent with the provided code. A listener can only
// register once per code; a duplicate returns false.
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], registeredEvent{listener: listener, callback: onEvent})
	return true
}

func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire dispatches synchronously on the calling goroutine. Returns true if a
// listener handled the event.
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	es.mu.RLock()
	events := append([]registeredEvent(nil), es.registered[code]...)
	es.mu.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, context) {
			return true
		}
	}
	return false
}

func (es *EventSystem) Shutdown() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[SystemEventCode][]registeredEvent)
}
