package editor

import (
	"sync"
	"time"
)

// Event is a tagged input to the controller's Dispatch loop. Events come from
// the UI (tool buttons, map gestures, key presses) and are handled
// synchronously in the order they arrive.
type Event interface {
	isEvent()
}

// ToolActivated is a tool-button click: it toggles the named tool.
type ToolActivated struct {
	Tool ToolID
}

// FeaturesPicked carries the geounits resolved by a selection gesture.
// Non-additive gestures (no modifier key) clear the selection first.
type FeaturesPicked struct {
	Units    []GeoUnit
	Additive bool
}

// FeaturesUnpicked removes the carried geounits from the selection.
type FeaturesUnpicked struct {
	Units []GeoUnit
}

// AssignRequested asks that the current selection be assigned to District.
type AssignRequested struct {
	District int
}

// UndoRequested retreats the version cursor by one.
type UndoRequested struct{}

// RedoRequested advances the version cursor to the next known version.
type RedoRequested struct{}

// EscapePressed cancels an in-progress drag-drop gesture; it is ignored
// outside one.
type EscapePressed struct{}

// DistrictRowClicked is one click on a district row; the controller
// disambiguates single (toggle highlight) from double (zoom) clicks.
type DistrictRowClicked struct {
	District int
}

func (ToolActivated) isEvent()      {}
func (FeaturesPicked) isEvent()     {}
func (FeaturesUnpicked) isEvent()   {}
func (AssignRequested) isEvent()    {}
func (UndoRequested) isEvent()      {}
func (RedoRequested) isEvent()      {}
func (EscapePressed) isEvent()      {}
func (DistrictRowClicked) isEvent() {}

// Notification is an outbound message to the controller's collaborators
// (statistics panels, legends, the district table).
type Notification interface {
	isNotification()
}

// VersionChanged announces that the displayed plan version moved, after an
// edit, an undo, or a redo. Collaborators refetch district geometry and
// statistics at the new version.
type VersionChanged struct {
	Version           int
	UpdateAssignments bool
}

// ToggleHighlighting asks the map to flip highlighting for one district.
type ToggleHighlighting struct {
	District int
}

// ZoomToDistrict asks the map to zoom to one district's extent.
type ZoomToDistrict struct {
	District int
}

func (VersionChanged) isNotification()     {}
func (ToggleHighlighting) isNotification() {}
func (ZoomToDistrict) isNotification()     {}

// Bus fan-outs notifications to subscribers, synchronously and in
// subscription order.
type Bus struct {
	mu   sync.Mutex
	subs []func(Notification)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every future notification.
func (b *Bus) Subscribe(fn func(Notification)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers n to every subscriber.
func (b *Bus) Publish(n Notification) {
	b.mu.Lock()
	subs := make([]func(Notification), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(n)
	}
}

// defaultClickDelay is the single/double-click disambiguation window for
// district rows.
const defaultClickDelay = 200 * time.Millisecond

// clickArbiter turns district-row clicks into toggle-highlighting (single
// click) or zoom (double click) notifications. A click starts a timer that
// fires the toggle unless a second click lands first, which cancels the timer
// and fires the zoom instead.
type clickArbiter struct {
	delay time.Duration
	bus   *Bus

	mu      sync.Mutex
	pending map[int]*time.Timer
}

func newClickArbiter(delay time.Duration, bus *Bus) *clickArbiter {
	if delay == 0 {
		delay = defaultClickDelay
	}
	return &clickArbiter{
		delay:   delay,
		bus:     bus,
		pending: make(map[int]*time.Timer),
	}
}

func (a *clickArbiter) Click(district int) {
	a.mu.Lock()
	if t, ok := a.pending[district]; ok {
		t.Stop()
		delete(a.pending, district)
		a.mu.Unlock()
		a.bus.Publish(ZoomToDistrict{District: district})
		return
	}
	a.pending[district] = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		delete(a.pending, district)
		a.mu.Unlock()
		a.bus.Publish(ToggleHighlighting{District: district})
	})
	a.mu.Unlock()
}
