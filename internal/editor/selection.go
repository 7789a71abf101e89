package editor

// DefaultFeatureLimit caps the selection when no limit is configured.
const DefaultFeatureLimit = 1000

// Selection holds the currently-selected geounit features, deduplicated by
// feature id. Mutations redraw affected features synchronously through the
// Renderer, and any add that would push the set past the feature limit is
// rejected in full: no partial application.
type Selection struct {
	limit    int
	units    map[string]GeoUnit
	order    []string // insertion order; first element drives the geolevel sent on assignment
	renderer Renderer
	notifier Notifier
}

// NewSelection creates an empty selection with the given feature limit.
func NewSelection(limit int, r Renderer, n Notifier) *Selection {
	if r == nil {
		r = NopRenderer{}
	}
	return &Selection{
		limit:    limit,
		units:    make(map[string]GeoUnit),
		renderer: r,
		notifier: n,
	}
}

// Add adds features to the selection and redraws them in the select style.
// The whole batch is rejected, with a capacity warning, if the incoming batch
// alone or combined with the current selection exceeds the feature limit.
// Duplicates (by id) of already-selected features are ignored. Reports
// whether the batch was applied.
func (s *Selection) Add(units []GeoUnit) bool {
	if len(units) > s.limit || len(s.units)+len(units) > s.limit {
		s.notifier.Notify(Notice{
			Kind:    NoticeWarning,
			Title:   "Too many geounits",
			Message: "You cannot select any more geounits; the selection limit has been reached.",
		})
		return false
	}

	added := make([]GeoUnit, 0, len(units))
	for _, u := range units {
		if _, ok := s.units[u.ID]; ok {
			continue
		}
		s.units[u.ID] = u
		s.order = append(s.order, u.ID)
		added = append(added, u)
	}
	if len(added) > 0 {
		s.renderer.Redraw(added, RenderSelect)
	}
	return true
}

// Remove removes features by id match and redraws them in the default style;
// the remaining selection is redrawn in the select style.
func (s *Selection) Remove(units []GeoUnit) {
	removed := make([]GeoUnit, 0, len(units))
	for _, u := range units {
		got, ok := s.units[u.ID]
		if !ok {
			continue
		}
		delete(s.units, u.ID)
		removed = append(removed, got)
	}
	if len(removed) == 0 {
		return
	}
	s.compactOrder()
	s.renderer.Redraw(removed, RenderDefault)
	if remaining := s.Units(); len(remaining) > 0 {
		s.renderer.Redraw(remaining, RenderSelect)
	}
}

// Clear empties the selection and redraws the cleared features in the default
// style. Used before any non-additive selection gesture.
func (s *Selection) Clear() {
	if len(s.units) == 0 {
		return
	}
	cleared := s.Units()
	s.units = make(map[string]GeoUnit)
	s.order = s.order[:0]
	s.renderer.Redraw(cleared, RenderDefault)
}

// Redraw redraws the whole selection in the given style.
func (s *Selection) Redraw(state RenderState) {
	if len(s.units) == 0 {
		return
	}
	s.renderer.Redraw(s.Units(), state)
}

// Size returns the number of selected features.
func (s *Selection) Size() int {
	return len(s.units)
}

// First returns the earliest-selected feature still in the selection.
func (s *Selection) First() (GeoUnit, bool) {
	if len(s.order) == 0 {
		return GeoUnit{}, false
	}
	return s.units[s.order[0]], true
}

// Units returns the selected features in insertion order.
func (s *Selection) Units() []GeoUnit {
	out := make([]GeoUnit, 0, len(s.units))
	for _, id := range s.order {
		out = append(out, s.units[id])
	}
	return out
}

// IDs returns the selected feature ids in insertion order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.order))
	out = append(out, s.order...)
	return out
}

func (s *Selection) compactOrder() {
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.units[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
}
