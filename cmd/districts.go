package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/districting-cli/pkg/districtmapping"
)

var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "Inspect and manage the plan's districts",
}

// -- districts list --

var districtsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the plan's districts at the current version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ctl, st, err := newController(ctx)
		if err != nil {
			return err
		}
		defer closeJournal(st)

		list, err := ctl.Districts(ctx)
		if err != nil {
			return eris.Wrap(err, "districts list")
		}
		if len(list.Districts) == 0 {
			fmt.Fprintln(os.Stderr, "No districts found.")
			return nil
		}

		// Collated sort so "District 2" precedes "District 10".
		c := collate.New(language.English, collate.Numeric)
		sort.SliceStable(list.Districts, func(i, j int) bool {
			return c.CompareString(list.Districts[i].LongLabel, list.Districts[j].LongLabel) < 0
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tVERSION\tLOCKED")
		for _, d := range list.Districts {
			locked := ""
			if d.Locked {
				locked = "locked"
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", d.ID, d.LongLabel, d.Version, locked)
		}
		return w.Flush()
	},
}

// -- districts lock / unlock --

func lockCommand(use, short string, lock bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <district-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return eris.Wrapf(err, "parse district id %q", args[0])
			}

			ctl, st, err := newController(ctx)
			if err != nil {
				return err
			}
			defer closeJournal(st)

			if err := ctl.SetDistrictLock(ctx, id, lock); err != nil {
				return err
			}
			fmt.Printf("District %d %sed.\n", id, use)
			return nil
		},
	}
}

// -- districts combine --

var districtsCombineCmd = &cobra.Command{
	Use:   "combine <from-id> <to-id>",
	Short: "Merge one district's geounits into another",
	Long:  "Merges every geounit of from-id into to-id. Combining into district 0 unassigns the geounits.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		from, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Wrapf(err, "parse district id %q", args[0])
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return eris.Wrapf(err, "parse district id %q", args[1])
		}

		ctl, st, err := newController(ctx)
		if err != nil {
			return err
		}
		defer closeJournal(st)

		if err := ctl.CombineDistricts(ctx, from, to); err != nil {
			return err
		}
		if to == districtmapping.UnassignedDistrictID {
			fmt.Printf("District %d unassigned; plan now at version %d.\n", from, ctl.History().Current())
			return nil
		}
		fmt.Printf("District %d merged into %d; plan now at version %d.\n", from, to, ctl.History().Current())
		return nil
	},
}

// -- districts fix-unassigned --

var districtsFixCmd = &cobra.Command{
	Use:   "fix-unassigned",
	Short: "Assign orphaned geounits to their best neighboring district",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ctl, st, err := newController(ctx)
		if err != nil {
			return err
		}
		defer closeJournal(st)

		if err := ctl.FixUnassigned(ctx); err != nil {
			return err
		}
		fmt.Printf("Unassigned geounits fixed; plan now at version %d.\n", ctl.History().Current())
		return nil
	},
}

func init() {
	districtsCmd.AddCommand(districtsListCmd)
	districtsCmd.AddCommand(lockCommand("lock", "Lock a district against assignment", true))
	districtsCmd.AddCommand(lockCommand("unlock", "Unlock a district", false))
	districtsCmd.AddCommand(districtsCombineCmd)
	districtsCmd.AddCommand(districtsFixCmd)
	rootCmd.AddCommand(districtsCmd)
}
