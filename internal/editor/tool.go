package editor

// ToolID identifies one of the interactive map tools.
type ToolID string

const (
	ToolNavigate     ToolID = "navigate"
	ToolIdentify     ToolID = "identify"
	ToolSinglePick   ToolID = "single-pick"
	ToolBoxPick      ToolID = "box-pick"
	ToolPolygonLasso ToolID = "polygon-lasso"
	ToolDragDrop     ToolID = "dragdrop-assign"
	ToolAnchor       ToolID = "anchor-assign"
	ToolLockToggle   ToolID = "lock-toggle"
	ToolUnassign     ToolID = "unassign-click"
	ToolDistrictID   ToolID = "district-id-inspect"

	// toolKeyboard is the background keyboard-shortcut control. It is
	// activated once and never deactivated by tool transitions.
	toolKeyboard ToolID = "keyboard-shortcuts"
)

// AllTools lists the interactive tools in activation-button order.
var AllTools = []ToolID{
	ToolNavigate,
	ToolIdentify,
	ToolSinglePick,
	ToolBoxPick,
	ToolPolygonLasso,
	ToolDragDrop,
	ToolAnchor,
	ToolLockToggle,
	ToolUnassign,
	ToolDistrictID,
}

// Tool is one interactive map control. Implementations backed by a real map
// library wrap their native control; BasicTool suffices for headless use.
type Tool interface {
	ID() ToolID
	Activate()
	Deactivate()
	Active() bool
}

// BasicTool is a plain activation-flag tool.
type BasicTool struct {
	id     ToolID
	active bool

	// Optional hooks invoked on state changes; a renderer-backed tool uses
	// these to enable or disable its native map control.
	OnActivate   func()
	OnDeactivate func()
}

// NewBasicTool creates an inactive tool with the given id.
func NewBasicTool(id ToolID) *BasicTool {
	return &BasicTool{id: id}
}

func (t *BasicTool) ID() ToolID { return t.id }

func (t *BasicTool) Activate() {
	if t.active {
		return
	}
	t.active = true
	if t.OnActivate != nil {
		t.OnActivate()
	}
}

func (t *BasicTool) Deactivate() {
	if !t.active {
		return
	}
	t.active = false
	if t.OnDeactivate != nil {
		t.OnDeactivate()
	}
}

func (t *BasicTool) Active() bool { return t.active }

// Toolset creates the ten interactive tools as BasicTools.
func Toolset() []Tool {
	tools := make([]Tool, 0, len(AllTools))
	for _, id := range AllTools {
		tools = append(tools, NewBasicTool(id))
	}
	return tools
}
