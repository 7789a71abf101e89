// Package editor implements the district-assignment interaction controller:
// the selection model, the exclusive tool state machine, the serialized
// assignment coordinator, and the version-cursor history behind undo/redo.
// It owns no rendering and no network transport; both arrive as interfaces so
// the state machine is testable in isolation.
package editor

import (
	geom "github.com/twpayne/go-geom"
)

// GeoUnit is one selectable geographic unit (block/tract/county-equivalent)
// rendered on the map. Geometry is owned by the rendering layer and
// referenced here, never copied; it may be nil for units that arrived from
// the server without geometry.
type GeoUnit struct {
	ID         string
	GeolevelID int
	Geom       *geom.Polygon
}

// RenderState is the visual style a feature is drawn in.
type RenderState int

const (
	RenderDefault RenderState = iota
	RenderSelect
	RenderError
)

func (s RenderState) String() string {
	switch s {
	case RenderSelect:
		return "select"
	case RenderError:
		return "error"
	default:
		return "default"
	}
}

// Renderer redraws features on the map. Selection mutations call it
// synchronously so the map reflects selection state immediately.
type Renderer interface {
	Redraw(units []GeoUnit, state RenderState)
}

// NopRenderer discards redraws; used by tests and headless sessions.
type NopRenderer struct{}

func (NopRenderer) Redraw([]GeoUnit, RenderState) {}

// DistrictPicker is the assign-district dropdown. Selected returns the picked
// district id, or PickerPlaceholder when nothing is picked; Reset returns the
// dropdown to the placeholder.
type DistrictPicker interface {
	Selected() int
	Reset()
}

// PickerPlaceholder is the sentinel the dropdown reports when no district is
// picked.
const PickerPlaceholder = -1

// Tooltip displays a transient instructional message near the map.
type Tooltip interface {
	Show(message string)
	Hide()
}
