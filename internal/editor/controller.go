package editor

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/districting-cli/pkg/districtmapping"
)

// Operation is one committed edit, handed to the Recorder for the journal.
type Operation struct {
	Kind          string
	District      int
	Units         int
	VersionBefore int
	VersionAfter  int
	Message       string
}

// Recorder persists committed operations. Recording failures are logged and
// never block the edit itself.
type Recorder interface {
	Record(ctx context.Context, op Operation) error
}

// Options configures a Controller. Service is required; everything else has a
// headless default.
type Options struct {
	Service districtmapping.Client

	// FeatureLimit caps the selection; zero falls back to
	// DefaultFeatureLimit.
	FeatureLimit   int
	InitialVersion int

	Renderer Renderer
	Notifier Notifier
	Picker   DistrictPicker
	Tooltip  Tooltip
	Recorder Recorder

	// Redirect navigates on session expiry; defaults to logging the URL.
	Redirect func(url string)

	// TooltipDelay and ClickDelay override the anchor-tooltip auto-hide and
	// the district-row double-click window; tests shorten them.
	TooltipDelay time.Duration
	ClickDelay   time.Duration
}

// Controller owns one editing session: the interaction state, the selection,
// the tool manager, the assignment coordinator, and the version history. All
// events enter through Dispatch and are handled synchronously under one lock,
// the moral equivalent of the browser's single UI thread.
type Controller struct {
	mu sync.Mutex

	svc      districtmapping.Client
	state    *InteractionState
	sel      *Selection
	tools    *ToolManager
	history  *VersionTracker
	coord    *Coordinator
	bus      *Bus
	clicks   *clickArbiter
	picker   DistrictPicker
	notifier Notifier
	recorder Recorder
	redirect func(url string)
}

// memoryPicker is the headless default dropdown.
type memoryPicker struct {
	district int
}

func (p *memoryPicker) Selected() int { return p.district }
func (p *memoryPicker) Reset()        { p.district = PickerPlaceholder }

// Pick sets the picked district; the real dropdown does this on user input.
func (p *memoryPicker) Pick(district int) { p.district = district }

// NewController creates a session controller at the plan's initial version.
func NewController(opts Options) *Controller {
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Picker == nil {
		opts.Picker = &memoryPicker{district: PickerPlaceholder}
	}
	if opts.Redirect == nil {
		opts.Redirect = func(url string) {
			zap.L().Warn("session expired", zap.String("redirect", url))
		}
	}
	if opts.FeatureLimit <= 0 {
		opts.FeatureLimit = DefaultFeatureLimit
	}

	state := &InteractionState{Mode: ModeNone}
	sel := NewSelection(opts.FeatureLimit, opts.Renderer, opts.Notifier)
	tools := NewToolManager(ToolManagerOptions{
		Tools:        Toolset(),
		State:        state,
		Sel:          sel,
		Notifier:     opts.Notifier,
		Picker:       opts.Picker,
		Tooltip:      opts.Tooltip,
		TooltipDelay: opts.TooltipDelay,
	})
	history := NewVersionTracker(opts.InitialVersion)
	bus := NewBus()
	coord := NewCoordinator(CoordinatorOptions{
		Service:  opts.Service,
		Sel:      sel,
		History:  history,
		State:    state,
		Tools:    tools,
		Picker:   opts.Picker,
		Notifier: opts.Notifier,
		Bus:      bus,
		Redirect: opts.Redirect,
	})

	return &Controller{
		svc:      opts.Service,
		state:    state,
		sel:      sel,
		tools:    tools,
		history:  history,
		coord:    coord,
		bus:      bus,
		clicks:   newClickArbiter(opts.ClickDelay, bus),
		picker:   opts.Picker,
		notifier: opts.Notifier,
		recorder: opts.Recorder,
		redirect: opts.Redirect,
	}
}

// Subscribe registers a handler for the controller's outbound notifications.
func (c *Controller) Subscribe(fn func(Notification)) {
	c.bus.Subscribe(fn)
}

// Dispatch handles one tagged event, mutating session state synchronously.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case ToolActivated:
		return c.tools.Toggle(e.Tool)

	case FeaturesPicked:
		if !e.Additive {
			c.sel.Clear()
		}
		if !c.sel.Add(e.Units) {
			return nil
		}
		// Anchor mode assigns every selection change to the pinned district.
		if c.state.Mode == ModeAnchor {
			if d := c.picker.Selected(); d != PickerPlaceholder {
				return c.assignLocked(ctx, d)
			}
		}
		return nil

	case FeaturesUnpicked:
		c.sel.Remove(e.Units)
		return nil

	case AssignRequested:
		return c.assignLocked(ctx, e.District)

	case UndoRequested:
		return c.undo(ctx)

	case RedoRequested:
		return c.redo(ctx)

	case EscapePressed:
		c.tools.Escape()
		return nil

	case DistrictRowClicked:
		c.clicks.Click(e.District)
		return nil

	default:
		return eris.Errorf("editor: unhandled event %T", ev)
	}
}

// assignLocked runs the coordinator with the controller lock released for the
// duration of the network call, so other dispatchers see the busy rejection
// instead of blocking behind the in-flight request.
func (c *Controller) assignLocked(ctx context.Context, district int) error {
	before := c.history.Current()
	c.mu.Unlock()
	err := c.coord.Assign(ctx, district)
	c.mu.Lock()
	if err == nil && c.history.Current() != before {
		c.record(ctx, Operation{
			Kind:          "assign",
			District:      district,
			Units:         c.sel.Size(),
			VersionBefore: before,
			VersionAfter:  c.history.Current(),
		})
	}
	return err
}

func (c *Controller) undo(ctx context.Context) error {
	before := c.history.Current()
	v, ok := c.history.Undo()
	if !ok {
		return nil
	}
	c.bus.Publish(VersionChanged{Version: v, UpdateAssignments: true})
	c.record(ctx, Operation{Kind: "undo", VersionBefore: before, VersionAfter: v})
	return nil
}

func (c *Controller) redo(ctx context.Context) error {
	before := c.history.Current()
	v, ok := c.history.Redo()
	if !ok {
		return nil
	}
	c.bus.Publish(VersionChanged{Version: v, UpdateAssignments: true})
	c.record(ctx, Operation{Kind: "redo", VersionBefore: before, VersionAfter: v})
	return nil
}

// Districts fetches the assignable-district list at the current version. The
// list is a transient rendering of the server's copy, never cached.
func (c *Controller) Districts(ctx context.Context) (*districtmapping.DistrictList, error) {
	c.mu.Lock()
	version := c.history.Current()
	c.mu.Unlock()

	list, err := c.svc.ListDistricts(ctx, version)
	if err != nil {
		c.surface(err, "Could not load districts")
		return nil, eris.Wrap(err, "editor: list districts")
	}
	return list, nil
}

// CombineDistricts merges one district into another (the Unassigned district
// as target unassigns). Advances the version and notifies collaborators.
func (c *Controller) CombineDistricts(ctx context.Context, fromID, toID int) error {
	c.mu.Lock()
	before := c.history.Current()
	c.mu.Unlock()

	res, err := c.svc.CombineDistricts(ctx, fromID, toID, before)
	if err != nil {
		c.surface(err, "Combine failed")
		return eris.Wrap(err, "editor: combine districts")
	}
	c.applyVersioned(ctx, Operation{
		Kind:          "combine",
		District:      toID,
		VersionBefore: before,
		VersionAfter:  res.Version,
		Message:       res.Message,
	})
	return nil
}

// FixUnassigned asks the server to assign every orphaned geounit to its best
// neighboring district.
func (c *Controller) FixUnassigned(ctx context.Context) error {
	c.mu.Lock()
	before := c.history.Current()
	c.mu.Unlock()

	res, err := c.svc.FixUnassigned(ctx, before)
	if err != nil {
		c.surface(err, "Fix unassigned failed")
		return eris.Wrap(err, "editor: fix unassigned")
	}
	c.applyVersioned(ctx, Operation{
		Kind:          "fixunassigned",
		VersionBefore: before,
		VersionAfter:  res.Version,
		Message:       res.Message,
	})
	return nil
}

// NewDistrictFromSelection creates a district from the current selection.
func (c *Controller) NewDistrictFromSelection(ctx context.Context, districtID int, name string) error {
	c.mu.Lock()
	if c.sel.Size() == 0 {
		c.mu.Unlock()
		c.notifier.Notify(Notice{
			Kind:    NoticeWarning,
			Title:   "Nothing selected",
			Message: "Select geounits before creating a district.",
		})
		return nil
	}
	first, _ := c.sel.First()
	ids := c.sel.IDs()
	units := c.sel.Size()
	before := c.history.Current()
	c.mu.Unlock()

	res, err := c.svc.NewDistrict(ctx, districtID, name, first.GeolevelID, ids, before)
	if err != nil {
		c.surface(err, "Create district failed")
		return eris.Wrap(err, "editor: new district")
	}
	c.applyVersioned(ctx, Operation{
		Kind:          "newdistrict",
		District:      districtID,
		Units:         units,
		VersionBefore: before,
		VersionAfter:  res.Version,
		Message:       res.Message,
	})
	return nil
}

// SetDistrictLock locks or unlocks a district. Lock state is server-owned;
// locked districts refuse geounit assignment.
func (c *Controller) SetDistrictLock(ctx context.Context, districtID int, lock bool) error {
	c.mu.Lock()
	version := c.history.Current()
	c.mu.Unlock()

	if err := c.svc.SetDistrictLock(ctx, districtID, lock, version); err != nil {
		c.surface(err, "Lock change failed")
		return eris.Wrap(err, "editor: set district lock")
	}
	c.record(ctx, Operation{
		Kind:          "lock",
		District:      districtID,
		VersionBefore: version,
		VersionAfter:  version,
	})
	return nil
}

// Selection exposes the selection model.
func (c *Controller) Selection() *Selection {
	return c.sel
}

// Tools exposes the tool manager.
func (c *Controller) Tools() *ToolManager {
	return c.tools
}

// History exposes the version tracker.
func (c *Controller) History() *VersionTracker {
	return c.history
}

// Mode returns the pending assignment mode.
func (c *Controller) Mode() AssignMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode
}

// applyVersioned advances the history after a version-changing flow, notifies
// collaborators, surfaces the server message, and records the operation.
func (c *Controller) applyVersioned(ctx context.Context, op Operation) {
	c.mu.Lock()
	c.history.Advance(op.VersionAfter)
	c.mu.Unlock()

	c.bus.Publish(VersionChanged{Version: op.VersionAfter, UpdateAssignments: true})
	if op.Message != "" {
		c.notifier.Notify(Notice{Kind: NoticeDialog, Title: "Plan updated", Message: op.Message})
	}
	c.record(ctx, op)
}

// surface routes a flow error to the user: a session redirect wins, anything
// else ends at a modal notice.
func (c *Controller) surface(err error, title string) {
	if url, ok := districtmapping.IsRedirect(err); ok {
		c.redirect(url)
		return
	}
	c.notifier.Notify(Notice{Kind: NoticeError, Title: title, Message: err.Error()})
}

func (c *Controller) record(ctx context.Context, op Operation) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, op); err != nil {
		zap.L().Warn("journal record failed",
			zap.String("kind", op.Kind),
			zap.Error(err),
		)
	}
}
