package main

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/districting-cli/internal/editor"
	"github.com/sells-group/districting-cli/internal/geounits"
	"github.com/sells-group/districting-cli/pkg/districtmapping"
)

// editService is a minimal scriptable service for REPL command tests.
type editService struct {
	version int
}

func (s *editService) AddToDistrict(_ context.Context, _, _ int, _ []string, _ int) (*districtmapping.AssignResult, error) {
	s.version++
	return &districtmapping.AssignResult{Updated: true, Version: s.version, Edited: true}, nil
}

func (s *editService) NewDistrict(context.Context, int, string, int, []string, int) (*districtmapping.VersionResult, error) {
	return &districtmapping.VersionResult{}, nil
}

func (s *editService) SetDistrictLock(context.Context, int, bool, int) error { return nil }

func (s *editService) CombineDistricts(context.Context, int, int, int) (*districtmapping.VersionResult, error) {
	return &districtmapping.VersionResult{}, nil
}

func (s *editService) ListDistricts(context.Context, int) (*districtmapping.DistrictList, error) {
	return &districtmapping.DistrictList{}, nil
}

func (s *editService) FixUnassigned(context.Context, int) (*districtmapping.VersionResult, error) {
	return &districtmapping.VersionResult{}, nil
}

func (s *editService) QuerySplits(context.Context, int, int) ([]districtmapping.Split, error) {
	return nil, nil
}

// fixedIndex resolves every point to the same unit.
type fixedIndex struct {
	units []geounits.Unit
}

func (f *fixedIndex) At(int, float64, float64) []geounits.Unit { return f.units }
func (f *fixedIndex) Box(int, float64, float64, float64, float64) []geounits.Unit {
	return f.units
}
func (f *fixedIndex) Lasso(int, *geom.Polygon) []geounits.Unit { return f.units }

func newEditFixture() (*cobra.Command, *editor.Controller, *fixedIndex) {
	ctl := editor.NewController(editor.Options{
		Service:      &editService{},
		FeatureLimit: 10,
	})
	ix := &fixedIndex{units: []geounits.Unit{{ID: "u1", GeolevelID: 1}}}
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd, ctl, ix
}

func TestRunEditCommandPickAndAssign(t *testing.T) {
	cmd, ctl, ix := newEditFixture()

	require.NoError(t, runEditCommand(cmd, ctl, ix, "pick 1 5 5"))
	assert.Equal(t, 1, ctl.Selection().Size())

	require.NoError(t, runEditCommand(cmd, ctl, ix, "assign 3"))
	assert.Equal(t, 1, ctl.History().Current())

	require.NoError(t, runEditCommand(cmd, ctl, ix, "undo"))
	assert.Equal(t, 0, ctl.History().Current())

	require.NoError(t, runEditCommand(cmd, ctl, ix, "redo"))
	assert.Equal(t, 1, ctl.History().Current())
}

func TestRunEditCommandTool(t *testing.T) {
	cmd, ctl, ix := newEditFixture()

	require.NoError(t, runEditCommand(cmd, ctl, ix, "tool box-pick"))
	assert.Equal(t, editor.ToolBoxPick, ctl.Tools().ActiveTool())

	err := runEditCommand(cmd, ctl, ix, "tool no-such-tool")
	assert.Error(t, err)
}

func TestRunEditCommandLasso(t *testing.T) {
	cmd, ctl, ix := newEditFixture()

	require.NoError(t, runEditCommand(cmd, ctl, ix, "lasso 1 0 0 10 0 10 10"))
	assert.Equal(t, 1, ctl.Selection().Size())
}

func TestRunEditCommandUnpick(t *testing.T) {
	cmd, ctl, ix := newEditFixture()

	require.NoError(t, runEditCommand(cmd, ctl, ix, "pick 1 5 5"))
	require.NoError(t, runEditCommand(cmd, ctl, ix, "unpick 1 5 5"))
	assert.Equal(t, 0, ctl.Selection().Size())
}

func TestRunEditCommandErrors(t *testing.T) {
	cmd, ctl, ix := newEditFixture()

	tests := []struct {
		name string
		line string
	}{
		{"unknown command", "frobnicate"},
		{"pick wrong arity", "pick 1 5"},
		{"pick bad coordinate", "pick 1 x y"},
		{"assign bad id", "assign three"},
		{"box wrong arity", "box 1 2 3"},
		{"lasso too few points", "lasso 1 0 0 10 0"},
		{"lasso odd coordinates", "lasso 1 0 0 10 0 10"},
		{"lasso bad coordinate", "lasso 1 0 0 10 0 x y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, runEditCommand(cmd, ctl, ix, tt.line))
		})
	}
}
