package editor

// AssignMode is the pending assignment gesture. Exactly one value holds at a
// time; transitions happen only through tool activation.
type AssignMode int

const (
	// ModeNone means no assignment gesture is pending.
	ModeNone AssignMode = iota
	// ModeAnchor auto-assigns every subsequent selection to the pinned district.
	ModeAnchor
	// ModeDragDrop means the current selection is being dragged onto a district.
	ModeDragDrop
)

func (m AssignMode) String() string {
	switch m {
	case ModeAnchor:
		return "anchor"
	case ModeDragDrop:
		return "dragdrop"
	default:
		return "none"
	}
}

// InteractionState is the shared mutable state of one editing session,
// owned by the Controller and passed by reference to its collaborators.
type InteractionState struct {
	Mode AssignMode
}
