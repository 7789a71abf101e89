package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/districting-cli/internal/editor"
	"github.com/sells-group/districting-cli/internal/geounits"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Start an interactive plan editing session",
	Long: `Starts a terminal editing session against the configured plan. Gestures
that a map UI would produce are entered as commands:

  tool <name>            toggle a tool (single-pick, box-pick, dragdrop-assign, ...)
  pick <geolevel> <x> <y>      select the geounit under a point
  pick+ <geolevel> <x> <y>     add to the selection (modifier held)
  box <geolevel> <x1> <y1> <x2> <y2>   rubber-band select
  lasso <geolevel> <x1> <y1> <x2> <y2> <x3> <y3> [...]   freehand select
  assign <district-id>   assign the selection to a district
  undo | redo | esc      history and gesture cancel
  state                  print session state
  quit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ctl, st, err := newController(ctx)
		if err != nil {
			return err
		}
		defer closeJournal(st)

		ix, err := loadIndex(ctx)
		if err != nil {
			return err
		}

		ctl.Subscribe(func(n editor.Notification) {
			switch v := n.(type) {
			case editor.VersionChanged:
				fmt.Printf("* plan version is now %d\n", v.Version)
			case editor.ToggleHighlighting:
				fmt.Printf("* toggled highlighting for district %d\n", v.District)
			case editor.ZoomToDistrict:
				fmt.Printf("* zoom to district %d\n", v.District)
			}
		})

		fmt.Printf("Editing plan %s at version %d. Type 'help' for commands.\n",
			cfg.API.Plan, ctl.History().Current())

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				return nil
			}
			if err := runEditCommand(cmd, ctl, ix, line); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
	},
}

func runEditCommand(cmd *cobra.Command, ctl *editor.Controller, ix indexer, line string) error {
	ctx := cmd.Context()
	fields := strings.Fields(line)

	switch fields[0] {
	case "help":
		fmt.Println(cmd.Long)
		return nil

	case "state":
		printState(ctl)
		return nil

	case "tool":
		if len(fields) != 2 {
			return eris.New("usage: tool <name>")
		}
		return ctl.Dispatch(ctx, editor.ToolActivated{Tool: editor.ToolID(fields[1])})

	case "pick", "pick+", "unpick":
		if len(fields) != 4 {
			return eris.Errorf("usage: %s <geolevel> <x> <y>", fields[0])
		}
		geolevel, x, y, err := parsePoint(fields[1], fields[2], fields[3])
		if err != nil {
			return err
		}
		units := ix.At(geolevel, x, y)
		if len(units) == 0 {
			fmt.Println("no geounit at that point")
			return nil
		}
		if fields[0] == "unpick" {
			return ctl.Dispatch(ctx, editor.FeaturesUnpicked{Units: toEditorUnits(units)})
		}
		return ctl.Dispatch(ctx, editor.FeaturesPicked{
			Units:    toEditorUnits(units),
			Additive: fields[0] == "pick+",
		})

	case "box":
		if len(fields) != 6 {
			return eris.New("usage: box <geolevel> <x1> <y1> <x2> <y2>")
		}
		geolevel, err := strconv.Atoi(fields[1])
		if err != nil {
			return eris.Wrap(err, "parse geolevel")
		}
		coords := make([]float64, 4)
		for i, f := range fields[2:6] {
			if coords[i], err = strconv.ParseFloat(f, 64); err != nil {
				return eris.Wrapf(err, "parse coordinate %q", f)
			}
		}
		units := ix.Box(geolevel, coords[0], coords[1], coords[2], coords[3])
		fmt.Printf("box resolved %d geounits\n", len(units))
		return ctl.Dispatch(ctx, editor.FeaturesPicked{Units: toEditorUnits(units), Additive: true})

	case "lasso":
		// Coordinate pairs trace the freehand ring; it closes itself.
		if len(fields) < 8 || len(fields)%2 != 0 {
			return eris.New("usage: lasso <geolevel> <x1> <y1> <x2> <y2> <x3> <y3> [...]")
		}
		geolevel, err := strconv.Atoi(fields[1])
		if err != nil {
			return eris.Wrap(err, "parse geolevel")
		}
		ring := make([][2]float64, 0, (len(fields)-2)/2)
		for i := 2; i < len(fields); i += 2 {
			x, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return eris.Wrapf(err, "parse coordinate %q", fields[i])
			}
			y, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return eris.Wrapf(err, "parse coordinate %q", fields[i+1])
			}
			ring = append(ring, [2]float64{x, y})
		}
		lasso, err := geounits.RingPolygon(ring)
		if err != nil {
			return err
		}
		units := ix.Lasso(geolevel, lasso)
		fmt.Printf("lasso resolved %d geounits\n", len(units))
		return ctl.Dispatch(ctx, editor.FeaturesPicked{Units: toEditorUnits(units), Additive: true})

	case "assign":
		if len(fields) != 2 {
			return eris.New("usage: assign <district-id>")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return eris.Wrapf(err, "parse district id %q", fields[1])
		}
		return ctl.Dispatch(ctx, editor.AssignRequested{District: id})

	case "undo":
		return ctl.Dispatch(ctx, editor.UndoRequested{})

	case "redo":
		return ctl.Dispatch(ctx, editor.RedoRequested{})

	case "esc":
		return ctl.Dispatch(ctx, editor.EscapePressed{})

	case "click":
		if len(fields) != 2 {
			return eris.New("usage: click <district-id>")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return eris.Wrapf(err, "parse district id %q", fields[1])
		}
		return ctl.Dispatch(ctx, editor.DistrictRowClicked{District: id})

	default:
		return eris.Errorf("unknown command %q (try 'help')", fields[0])
	}
}

func printState(ctl *editor.Controller) {
	fmt.Printf("version:   %d (undo: %v, redo: %v)\n",
		ctl.History().Current(), ctl.History().CanUndo(), ctl.History().CanRedo())
	fmt.Printf("tool:      %s\n", ctl.Tools().ActiveTool())
	fmt.Printf("selection: %d geounit(s)\n", ctl.Selection().Size())
	if ids := ctl.Selection().IDs(); len(ids) > 0 {
		fmt.Printf("           %s\n", strings.Join(ids, ", "))
	}
}

func parsePoint(geolevelStr, xStr, yStr string) (int, float64, float64, error) {
	geolevel, err := strconv.Atoi(geolevelStr)
	if err != nil {
		return 0, 0, 0, eris.Wrap(err, "parse geolevel")
	}
	x, err := strconv.ParseFloat(xStr, 64)
	if err != nil {
		return 0, 0, 0, eris.Wrap(err, "parse x")
	}
	y, err := strconv.ParseFloat(yStr, 64)
	if err != nil {
		return 0, 0, 0, eris.Wrap(err, "parse y")
	}
	return geolevel, x, y, nil
}

func init() {
	rootCmd.AddCommand(editCmd)
}
