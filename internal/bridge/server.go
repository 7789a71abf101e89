// Package bridge exposes an editing session to a browser map UI over HTTP.
// The map page posts gestures as events; the bridge resolves them against the
// local geounit index and dispatches them into the session controller.
package bridge

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/districting-cli/internal/editor"
	"github.com/sells-group/districting-cli/internal/geounits"
)

// Options configures the bridge server.
type Options struct {
	Controller     *editor.Controller
	Index          *geounits.Index
	AllowedOrigins []string
}

// Server routes map-UI requests into one editing session.
type Server struct {
	ctl    *editor.Controller
	index  *geounits.Index
	router chi.Router
}

// NewServer builds the bridge router around a session controller.
func NewServer(opts Options) *Server {
	s := &Server{
		ctl:   opts.Controller,
		index: opts.Index,
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/session", s.handleSession)

	r.Route("/events", func(r chi.Router) {
		r.Post("/tool", s.handleTool)
		r.Post("/pick", s.handlePick)
		r.Post("/unpick", s.handleUnpick)
		r.Post("/box", s.handleBox)
		r.Post("/lasso", s.handleLasso)
		r.Post("/assign", s.handleAssign)
		r.Post("/undo", s.handleEvent(editor.UndoRequested{}))
		r.Post("/redo", s.handleEvent(editor.RedoRequested{}))
		r.Post("/escape", s.handleEvent(editor.EscapePressed{}))
		r.Post("/district-click", s.handleDistrictClick)
	})

	r.Route("/districts", func(r chi.Router) {
		r.Get("/", s.handleDistricts)
		r.Post("/new", s.handleNewDistrict)
		r.Post("/combine", s.handleCombine)
		r.Post("/fix-unassigned", s.handleFixUnassigned)
		r.Post("/{id}/lock", s.handleLock)
	})

	s.router = r
	return s
}

// Handler returns the bridge's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionState is the snapshot the map UI polls between events.
type sessionState struct {
	Version    int           `json:"version"`
	CanUndo    bool          `json:"can_undo"`
	CanRedo    bool          `json:"can_redo"`
	ActiveTool editor.ToolID `json:"active_tool"`
	Mode       string        `json:"mode"`
	Selection  []string      `json:"selection"`
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sessionState{
		Version:    s.ctl.History().Current(),
		CanUndo:    s.ctl.History().CanUndo(),
		CanRedo:    s.ctl.History().CanRedo(),
		ActiveTool: s.ctl.Tools().ActiveTool(),
		Mode:       modeName(s.ctl.Mode()),
		Selection:  s.ctl.Selection().IDs(),
	})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool editor.ToolID `json:"tool"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, editor.ToolActivated{Tool: req.Tool})
}

// pickRequest is one point gesture on the map.
type pickRequest struct {
	Geolevel int     `json:"geolevel"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Additive bool    `json:"additive"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if !decode(w, r, &req) {
		return
	}
	units := s.index.At(req.Geolevel, req.X, req.Y)
	s.dispatch(w, r, editor.FeaturesPicked{Units: toGeoUnits(units), Additive: req.Additive})
}

func (s *Server) handleUnpick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if !decode(w, r, &req) {
		return
	}
	units := s.index.At(req.Geolevel, req.X, req.Y)
	s.dispatch(w, r, editor.FeaturesUnpicked{Units: toGeoUnits(units)})
}

func (s *Server) handleBox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Geolevel int     `json:"geolevel"`
		MinX     float64 `json:"min_x"`
		MinY     float64 `json:"min_y"`
		MaxX     float64 `json:"max_x"`
		MaxY     float64 `json:"max_y"`
		Additive bool    `json:"additive"`
	}
	if !decode(w, r, &req) {
		return
	}
	units := s.index.Box(req.Geolevel, req.MinX, req.MinY, req.MaxX, req.MaxY)
	s.dispatch(w, r, editor.FeaturesPicked{Units: toGeoUnits(units), Additive: req.Additive})
}

func (s *Server) handleLasso(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Geolevel int          `json:"geolevel"`
		Ring     [][2]float64 `json:"ring"`
		Additive bool         `json:"additive"`
	}
	if !decode(w, r, &req) {
		return
	}
	lasso, err := geounits.RingPolygon(req.Ring)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	units := s.index.Lasso(req.Geolevel, lasso)
	s.dispatch(w, r, editor.FeaturesPicked{Units: toGeoUnits(units), Additive: req.Additive})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		District int `json:"district"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, editor.AssignRequested{District: req.District})
}

func (s *Server) handleDistrictClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		District int `json:"district"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, editor.DistrictRowClicked{District: req.District})
}

func (s *Server) handleEvent(ev editor.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, r, ev)
	}
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	list, err := s.ctl.Districts(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleNewDistrict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		District int    `json:"district"`
		Name     string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.ctl.NewDistrictFromSelection(r.Context(), req.District, req.Name); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"version": s.ctl.History().Current()})
}

func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.ctl.CombineDistricts(r.Context(), req.From, req.To); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"version": s.ctl.History().Current()})
}

func (s *Server) handleFixUnassigned(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.FixUnassigned(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"version": s.ctl.History().Current()})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Locked bool `json:"locked"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.ctl.SetDistrictLock(r.Context(), id, req.Locked); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dispatch feeds one event to the controller. Rejections (feature limit,
// request already in flight) surface through the session's notifier; the
// bridge reports them as 409 so the UI can re-poll.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev editor.Event) {
	if err := s.ctl.Dispatch(r.Context(), ev); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"version": s.ctl.History().Current()})
}

func toGeoUnits(units []geounits.Unit) []editor.GeoUnit {
	out := make([]editor.GeoUnit, len(units))
	for i, u := range units {
		out[i] = editor.GeoUnit{ID: u.ID, GeolevelID: u.GeolevelID, Geom: u.Geom}
	}
	return out
}

func modeName(m editor.AssignMode) string {
	switch m {
	case editor.ModeAnchor:
		return "anchor"
	case editor.ModeDragDrop:
		return "dragdrop"
	default:
		return "none"
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("bridge: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
