package editor

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/districting-cli/pkg/districtmapping"
)

// ErrAssignmentInFlight is returned when an assignment is attempted while
// another is outstanding. The attempt is rejected, never queued.
var ErrAssignmentInFlight = eris.New("editor: an assignment request is already in flight")

// Coordinator serializes assignment requests to the server: at most one in
// flight, version advanced and collaborators notified on success, selection
// and version left untouched on failure.
type Coordinator struct {
	svc      districtmapping.Client
	sel      *Selection
	history  *VersionTracker
	state    *InteractionState
	tools    *ToolManager
	picker   DistrictPicker
	notifier Notifier
	bus      *Bus
	redirect func(url string)

	mu       sync.Mutex
	inFlight bool
}

// CoordinatorOptions wires the coordinator's collaborators.
type CoordinatorOptions struct {
	Service  districtmapping.Client
	Sel      *Selection
	History  *VersionTracker
	State    *InteractionState
	Tools    *ToolManager
	Picker   DistrictPicker
	Notifier Notifier
	Bus      *Bus

	// Redirect navigates to the login page on session expiry. Required:
	// session errors are never swallowed.
	Redirect func(url string)
}

// NewCoordinator creates an assignment coordinator.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	return &Coordinator{
		svc:      opts.Service,
		sel:      opts.Sel,
		history:  opts.History,
		state:    opts.State,
		tools:    opts.Tools,
		picker:   opts.Picker,
		notifier: opts.Notifier,
		bus:      opts.Bus,
		redirect: opts.Redirect,
	}
}

// Assign sends the current selection to districtID. An empty selection resets
// the dropdown and sends nothing. A concurrent attempt while a request is
// outstanding is rejected with a busy notice and ErrAssignmentInFlight.
func (c *Coordinator) Assign(ctx context.Context, districtID int) error {
	if c.sel.Size() == 0 {
		c.picker.Reset()
		return nil
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.notifier.Notify(Notice{
			Kind:    NoticeBusy,
			Title:   "Please wait",
			Message: "The previous assignment is still being processed.",
		})
		return ErrAssignmentInFlight
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	first, _ := c.sel.First()
	version := c.history.Current()

	res, err := c.svc.AddToDistrict(ctx, districtID, first.GeolevelID, c.sel.IDs(), version)
	if err != nil {
		c.fail(err)
		return eris.Wrap(err, "editor: assign selection")
	}

	if !res.Updated {
		// The request succeeded but nothing changed (e.g. the units were
		// already in the district). Distinct from a hard failure.
		c.notifier.Notify(Notice{
			Kind:    NoticeDialog,
			Title:   "No districts updated",
			Message: "No districts were updated by this assignment.",
		})
		return nil
	}

	c.history.Advance(res.Version)
	c.sel.Redraw(RenderSelect)
	c.bus.Publish(VersionChanged{Version: res.Version, UpdateAssignments: true})

	zap.L().Info("selection assigned",
		zap.Int("district", districtID),
		zap.Int("units", c.sel.Size()),
		zap.Int("version", res.Version),
	)

	if c.state.Mode == ModeDragDrop {
		c.tools.FinishDragDrop()
	} else {
		c.picker.Reset()
	}
	return nil
}

// fail surfaces an assignment failure. A session redirect takes precedence
// over every other error handling; otherwise the error is terminal at a
// notice.
func (c *Coordinator) fail(err error) {
	if url, ok := districtmapping.IsRedirect(err); ok {
		c.redirect(url)
		return
	}
	c.sel.Redraw(RenderError)
	c.notifier.Notify(Notice{
		Kind:    NoticeError,
		Title:   "Assignment failed",
		Message: err.Error(),
	})
}

// InFlight reports whether an assignment request is outstanding.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}
