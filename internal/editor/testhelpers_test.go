package editor

import (
	"context"
	"sync"

	"github.com/sells-group/districting-cli/pkg/districtmapping"
)

// fakeService is a scriptable districtmapping.Client.
type fakeService struct {
	mu sync.Mutex

	addCalls int

	addFn     func(ctx context.Context, districtID, geolevel int, unitIDs []string, version int) (*districtmapping.AssignResult, error)
	newFn     func(ctx context.Context, districtID int, name string, geolevel int, unitIDs []string, version int) (*districtmapping.VersionResult, error)
	lockFn    func(ctx context.Context, districtID int, lock bool, version int) error
	combineFn func(ctx context.Context, fromID, toID, version int) (*districtmapping.VersionResult, error)
	listFn    func(ctx context.Context, version int) (*districtmapping.DistrictList, error)
	fixFn     func(ctx context.Context, version int) (*districtmapping.VersionResult, error)
	splitsFn  func(ctx context.Context, geolevel, version int) ([]districtmapping.Split, error)
}

func (f *fakeService) AddToDistrict(ctx context.Context, districtID, geolevel int, unitIDs []string, version int) (*districtmapping.AssignResult, error) {
	f.mu.Lock()
	f.addCalls++
	f.mu.Unlock()
	if f.addFn != nil {
		return f.addFn(ctx, districtID, geolevel, unitIDs, version)
	}
	return &districtmapping.AssignResult{Updated: true, Version: version + 1}, nil
}

func (f *fakeService) NewDistrict(ctx context.Context, districtID int, name string, geolevel int, unitIDs []string, version int) (*districtmapping.VersionResult, error) {
	if f.newFn != nil {
		return f.newFn(ctx, districtID, name, geolevel, unitIDs, version)
	}
	return &districtmapping.VersionResult{Version: version + 1}, nil
}

func (f *fakeService) SetDistrictLock(ctx context.Context, districtID int, lock bool, version int) error {
	if f.lockFn != nil {
		return f.lockFn(ctx, districtID, lock, version)
	}
	return nil
}

func (f *fakeService) CombineDistricts(ctx context.Context, fromID, toID, version int) (*districtmapping.VersionResult, error) {
	if f.combineFn != nil {
		return f.combineFn(ctx, fromID, toID, version)
	}
	return &districtmapping.VersionResult{Version: version + 1}, nil
}

func (f *fakeService) ListDistricts(ctx context.Context, version int) (*districtmapping.DistrictList, error) {
	if f.listFn != nil {
		return f.listFn(ctx, version)
	}
	return &districtmapping.DistrictList{}, nil
}

func (f *fakeService) FixUnassigned(ctx context.Context, version int) (*districtmapping.VersionResult, error) {
	if f.fixFn != nil {
		return f.fixFn(ctx, version)
	}
	return &districtmapping.VersionResult{Version: version + 1}, nil
}

func (f *fakeService) QuerySplits(ctx context.Context, geolevel, version int) ([]districtmapping.Split, error) {
	if f.splitsFn != nil {
		return f.splitsFn(ctx, geolevel, version)
	}
	return nil, nil
}

func (f *fakeService) addCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls
}

// redrawCall is one recorded Renderer invocation.
type redrawCall struct {
	ids   []string
	state RenderState
}

// fakeRenderer records every redraw.
type fakeRenderer struct {
	calls []redrawCall
}

func (r *fakeRenderer) Redraw(units []GeoUnit, state RenderState) {
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	r.calls = append(r.calls, redrawCall{ids: ids, state: state})
}

func (r *fakeRenderer) last() (redrawCall, bool) {
	if len(r.calls) == 0 {
		return redrawCall{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// fakeNotifier records notices.
type fakeNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *fakeNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) byKind(kind NoticeKind) []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notice
	for _, notice := range n.notices {
		if notice.Kind == kind {
			out = append(out, notice)
		}
	}
	return out
}

// fakeTooltip records show/hide calls.
type fakeTooltip struct {
	mu      sync.Mutex
	shown   []string
	hideCnt int
}

func (t *fakeTooltip) Show(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown = append(t.shown, message)
}

func (t *fakeTooltip) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hideCnt++
}

func (t *fakeTooltip) hides() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hideCnt
}

func unit(id string) GeoUnit {
	return GeoUnit{ID: id, GeolevelID: 2}
}

func units(ids ...string) []GeoUnit {
	out := make([]GeoUnit, len(ids))
	for i, id := range ids {
		out[i] = unit(id)
	}
	return out
}
