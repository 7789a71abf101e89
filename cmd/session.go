package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/districting-cli/internal/editor"
	"github.com/sells-group/districting-cli/internal/geounits"
	"github.com/sells-group/districting-cli/internal/journal"
	"github.com/sells-group/districting-cli/pkg/districtmapping"
)

// newService builds the districtmapping client from config.
func newService() (districtmapping.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []districtmapping.Option{
		districtmapping.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}),
	}
	if cfg.API.CSRFToken != "" {
		opts = append(opts, districtmapping.WithCSRFToken(cfg.API.CSRFToken))
	}
	if cfg.API.RateLimitPerSec > 0 {
		opts = append(opts, districtmapping.WithRateLimit(cfg.API.RateLimitPerSec, 1))
	}

	return districtmapping.NewClient(cfg.API.BaseURL, cfg.API.Plan, opts...), nil
}

// initJournal opens the configured journal backend; the "none" driver
// returns a nil store.
func initJournal(ctx context.Context) (journal.Store, error) {
	switch cfg.Journal.Driver {
	case "none":
		return nil, nil
	case "postgres":
		st, err := journal.NewPostgres(ctx, cfg.Journal.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	case "sqlite", "":
		st, err := journal.NewSQLite(cfg.Journal.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown journal driver %q", cfg.Journal.Driver)
	}
}

// newController assembles an editing session from config. The caller owns
// closing the returned journal store.
func newController(ctx context.Context) (*editor.Controller, journal.Store, error) {
	svc, err := newService()
	if err != nil {
		return nil, nil, err
	}

	st, err := initJournal(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := editor.Options{
		Service:        svc,
		FeatureLimit:   cfg.Editor.FeatureLimit,
		InitialVersion: cfg.Editor.InitialVersion,
		TooltipDelay:   time.Duration(cfg.Editor.TooltipSecs) * time.Second,
		ClickDelay:     time.Duration(cfg.Editor.ClickDelayMs) * time.Millisecond,
	}
	if st != nil {
		opts.Recorder = journal.NewRecorder(st, cfg.API.Plan)
	}

	return editor.NewController(opts), st, nil
}

// indexer is the index surface the edit commands need.
type indexer interface {
	At(geolevel int, x, y float64) []geounits.Unit
	Box(geolevel int, minX, minY, maxX, maxY float64) []geounits.Unit
	Lasso(geolevel int, lasso *geom.Polygon) []geounits.Unit
}

func toEditorUnits(units []geounits.Unit) []editor.GeoUnit {
	out := make([]editor.GeoUnit, len(units))
	for i, u := range units {
		out[i] = editor.GeoUnit{ID: u.ID, GeolevelID: u.GeolevelID, Geom: u.Geom}
	}
	return out
}

func closeJournal(st journal.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		zap.L().Warn("close journal", zap.Error(err))
	}
}

// loadIndex ingests the configured shapefiles into a fresh geounit index.
func loadIndex(ctx context.Context) (*geounits.Index, error) {
	ix := geounits.NewIndex()
	if len(cfg.Geounits.Shapefiles) == 0 {
		return ix, nil
	}

	specs := make([]geounits.ShapefileSpec, len(cfg.Geounits.Shapefiles))
	for i, sf := range cfg.Geounits.Shapefiles {
		specs[i] = geounits.ShapefileSpec{
			Path:       sf.Path,
			GeolevelID: sf.Geolevel,
			IDField:    sf.IDField,
			NameField:  sf.NameField,
		}
	}

	n, err := geounits.LoadShapefiles(ctx, ix, specs)
	if err != nil {
		return nil, eris.Wrap(err, "load shapefiles")
	}
	zap.L().Info("geounit index loaded",
		zap.Int("units", n),
		zap.Int("files", len(specs)),
	)
	return ix, nil
}
