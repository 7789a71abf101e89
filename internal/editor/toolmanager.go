package editor

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const anchorTooltipText = "Click a district in the assign menu, then every selection you make is assigned to it."

// defaultTooltipDelay is how long the anchor instructional tooltip stays up.
const defaultTooltipDelay = 5 * time.Second

// ToolManager enforces the exactly-one-active-tool invariant across the
// interactive tools and owns the drag-drop suspend/resume and anchor-mode
// transitions.
type ToolManager struct {
	tools map[ToolID]Tool
	order []ToolID

	// keyboard is the background shortcut control; it stays active across
	// every transition.
	keyboard Tool

	// resume is the tool suspended when drag-drop engaged, restored when
	// drag-drop disengages.
	resume ToolID

	// escapeArmed is true only while drag-drop is active; Escape is ignored
	// otherwise.
	escapeArmed bool

	state    *InteractionState
	sel      *Selection
	notifier Notifier
	picker   DistrictPicker
	tooltip  Tooltip

	tooltipDelay time.Duration
	tooltipTimer *time.Timer
}

// ToolManagerOptions wires the manager's collaborators.
type ToolManagerOptions struct {
	Tools    []Tool
	State    *InteractionState
	Sel      *Selection
	Notifier Notifier
	Picker   DistrictPicker
	Tooltip  Tooltip

	// TooltipDelay overrides the anchor tooltip auto-hide delay; tests
	// shorten it.
	TooltipDelay time.Duration
}

// NewToolManager creates a manager over the given tools and activates the
// background keyboard control and the single-pick default.
func NewToolManager(opts ToolManagerOptions) *ToolManager {
	m := &ToolManager{
		tools:        make(map[ToolID]Tool, len(opts.Tools)+1),
		keyboard:     NewBasicTool(toolKeyboard),
		state:        opts.State,
		sel:          opts.Sel,
		notifier:     opts.Notifier,
		picker:       opts.Picker,
		tooltip:      opts.Tooltip,
		tooltipDelay: opts.TooltipDelay,
	}
	if m.tooltipDelay == 0 {
		m.tooltipDelay = defaultTooltipDelay
	}
	for _, t := range opts.Tools {
		m.tools[t.ID()] = t
		m.order = append(m.order, t.ID())
	}
	m.keyboard.Activate()
	m.ensureFallback()
	return m
}

// Toggle flips a tool the way its button does: activating it if inactive
// (deactivating everything else first), deactivating it if active. Toggling
// an already-active tool's activation path is idempotent.
func (m *ToolManager) Toggle(id ToolID) error {
	t, ok := m.tools[id]
	if !ok {
		return eris.Errorf("editor: unknown tool %q", id)
	}

	if t.Active() {
		m.toggleOff(id)
		return nil
	}

	switch id {
	case ToolDragDrop:
		m.engageDragDrop()
	case ToolAnchor:
		m.Activate(id)
		m.state.Mode = ModeAnchor
		m.showAnchorTooltip()
	default:
		m.Activate(id)
	}
	return nil
}

// Activate makes id the only active interactive tool. The background keyboard
// control is never deactivated. Re-activating the active tool is a no-op.
func (m *ToolManager) Activate(id ToolID) {
	// Activating past an engaged gesture abandons it.
	if id != ToolDragDrop && m.escapeArmed {
		m.escapeArmed = false
		m.resume = ""
		if m.state.Mode == ModeDragDrop {
			m.state.Mode = ModeNone
		}
	}
	if id != ToolAnchor && m.state.Mode == ModeAnchor {
		if t, ok := m.tools[ToolAnchor]; ok && t.Active() {
			m.state.Mode = ModeNone
		}
	}
	for _, other := range m.order {
		if other == id {
			continue
		}
		m.tools[other].Deactivate()
	}
	m.tools[id].Activate()
	zap.L().Debug("tool activated", zap.String("tool", string(id)))
}

// ActiveTool returns the id of the active interactive tool, or "" when only
// the background control is active.
func (m *ToolManager) ActiveTool() ToolID {
	for _, id := range m.order {
		if m.tools[id].Active() {
			return id
		}
	}
	return ""
}

// Tool returns the tool registered under id.
func (m *ToolManager) Tool(id ToolID) (Tool, bool) {
	t, ok := m.tools[id]
	return t, ok
}

// KeyboardActive reports whether the background shortcut control is active.
// It must be true at all times.
func (m *ToolManager) KeyboardActive() bool {
	return m.keyboard.Active()
}

// Escape cancels an in-progress drag-drop gesture: the selection is cleared,
// the assign dropdown resets, and the suspended tool resumes. Outside a
// drag-drop gesture Escape does nothing.
func (m *ToolManager) Escape() {
	if !m.escapeArmed {
		return
	}
	m.sel.Clear()
	m.picker.Reset()
	m.disengageDragDrop()
}

// FinishDragDrop disengages drag-drop after a completed assignment, resuming
// the suspended tool. The Assignment Coordinator calls this on success.
func (m *ToolManager) FinishDragDrop() {
	m.disengageDragDrop()
}

func (m *ToolManager) toggleOff(id ToolID) {
	switch id {
	case ToolDragDrop:
		m.disengageDragDrop()
	case ToolAnchor:
		m.tools[id].Deactivate()
		m.state.Mode = ModeNone
		m.picker.Reset()
		m.ensureFallback()
	default:
		m.tools[id].Deactivate()
		m.ensureFallback()
	}
}

// engageDragDrop suspends whichever tool is active, remembers it, and
// activates drag-drop directly. Without a selection there is nothing to drag.
func (m *ToolManager) engageDragDrop() {
	if m.sel.Size() == 0 {
		m.notifier.Notify(Notice{
			Kind:    NoticeWarning,
			Title:   "Nothing to drag",
			Message: "Select geounits before dragging them onto a district.",
		})
		m.ensureFallback()
		return
	}
	m.resume = m.ActiveTool()
	m.Activate(ToolDragDrop)
	m.state.Mode = ModeDragDrop
	m.escapeArmed = true
}

func (m *ToolManager) disengageDragDrop() {
	m.escapeArmed = false
	m.tools[ToolDragDrop].Deactivate()
	if m.state.Mode == ModeDragDrop {
		m.state.Mode = ModeNone
	}
	if m.resume != "" {
		m.Activate(m.resume)
		// The anchor tool carries its assign mode; re-pin it on resume.
		if m.resume == ToolAnchor {
			m.state.Mode = ModeAnchor
		}
		m.resume = ""
	}
	m.ensureFallback()
}

// ensureFallback activates single-pick when no interactive tool is active.
// The session must never be left with zero selection tools.
func (m *ToolManager) ensureFallback() {
	if m.ActiveTool() != "" {
		return
	}
	m.Activate(ToolSinglePick)
}

func (m *ToolManager) showAnchorTooltip() {
	if m.tooltip == nil {
		return
	}
	m.tooltip.Show(anchorTooltipText)
	if m.tooltipTimer != nil {
		m.tooltipTimer.Stop()
	}
	m.tooltipTimer = time.AfterFunc(m.tooltipDelay, m.tooltip.Hide)
}
