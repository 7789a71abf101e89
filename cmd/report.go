package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/districting-cli/internal/report"
)

var (
	reportGeolevel int
	reportVersion  int
	reportOut      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Plan quality reports",
}

var reportSplitsCmd = &cobra.Command{
	Use:   "splits",
	Short: "Report geounits split across district boundaries",
	Long:  "Queries the geounits straddling district boundaries at a geolevel and prints them, or writes an xlsx workbook with --out.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		svc, err := newService()
		if err != nil {
			return err
		}

		version := reportVersion
		if version < 0 {
			version = cfg.Editor.InitialVersion
		}

		r, err := report.BuildSplits(ctx, svc, cfg.API.Plan, reportGeolevel, version)
		if err != nil {
			return err
		}

		if reportOut != "" {
			if err := r.WriteXLSX(reportOut); err != nil {
				return err
			}
			fmt.Printf("%d split geounits written to %s.\n", len(r.Splits), reportOut)
			return nil
		}

		if len(r.Splits) == 0 {
			fmt.Println("No split geounits.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GEOUNIT\tNAME\tDISTRICTS")
		for _, s := range r.Splits {
			fmt.Fprintf(w, "%s\t%s\t%v\n", s.UnitID, s.Name, s.Districts)
		}
		return w.Flush()
	},
}

func init() {
	reportSplitsCmd.Flags().IntVar(&reportGeolevel, "geolevel", 0, "geolevel to query")
	reportSplitsCmd.Flags().IntVar(&reportVersion, "version", -1, "plan version (default: configured initial version)")
	reportSplitsCmd.Flags().StringVarP(&reportOut, "out", "o", "", "write an xlsx workbook to this path")
	reportCmd.AddCommand(reportSplitsCmd)
	rootCmd.AddCommand(reportCmd)
}
