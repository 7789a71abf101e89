package editor

// VersionTracker maintains the plan version cursor and the sparse set of
// versions known to exist server-side. Undo retreats the cursor, redo advances
// it skipping versions invalidated by edits made mid-history.
type VersionTracker struct {
	current int
	max     int
	known   map[int]bool
}

// NewVersionTracker starts the tracker at the plan's initial version. Every
// version from 0 through initial exists server-side, so all are marked known.
func NewVersionTracker(initial int) *VersionTracker {
	if initial < 0 {
		initial = 0
	}
	t := &VersionTracker{
		current: initial,
		max:     initial,
		known:   make(map[int]bool, initial+1),
	}
	for v := 0; v <= initial; v++ {
		t.known[v] = true
	}
	return t
}

// Current returns the version the displayed plan state corresponds to. Every
// server read must carry this value as a filter.
func (t *VersionTracker) Current() int {
	return t.current
}

// Max returns the highest version known to the tracker.
func (t *VersionTracker) Max() int {
	return t.max
}

// CanUndo reports whether the cursor can retreat.
func (t *VersionTracker) CanUndo() bool {
	return t.current > 0
}

// CanRedo reports whether the cursor can advance.
func (t *VersionTracker) CanRedo() bool {
	return t.current < t.max
}

// Known reports whether a version has been visited or reported by the server.
func (t *VersionTracker) Known(v int) bool {
	return t.known[v]
}

// Advance moves the cursor to the version a successful edit produced. An edit
// made after undoing lands below the old max: the versions above it are an
// invalidated future branch and are discarded one by one, so sparse entries
// at or below the new max are never touched.
func (t *VersionTracker) Advance(v int) {
	if v < 0 {
		return
	}
	if v > t.max {
		t.max = v
	} else if v < t.max {
		for old := t.max; old > v; old-- {
			delete(t.known, old)
		}
		t.max = v
	}
	t.known[v] = true
	t.current = v
}

// Undo retreats the cursor by one version, marking the new current version
// known. Reports the new version and whether the undo was applied; undo is
// valid only while the cursor is above zero.
func (t *VersionTracker) Undo() (int, bool) {
	if t.current <= 0 {
		return t.current, false
	}
	t.current--
	t.known[t.current] = true
	return t.current, true
}

// Redo advances the cursor to the next known version, skipping gaps left by
// pruned branches, and never past the max. Reports the new version and
// whether the redo was applied.
func (t *VersionTracker) Redo() (int, bool) {
	if t.current >= t.max {
		return t.current, false
	}
	v := t.current + 1
	for v < t.max && !t.known[v] {
		v++
	}
	t.current = v
	t.known[v] = true
	return t.current, true
}
