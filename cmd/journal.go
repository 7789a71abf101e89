package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/districting-cli/internal/journal"
)

var (
	journalKind  string
	journalLimit int
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the plan edit journal",
}

// -- journal list --

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled edits for the configured plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := listEntries(cmd)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No journal entries found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tKIND\tDISTRICT\tUNITS\tVERSION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d -> %d\n",
				e.CreatedAt.Local().Format(time.DateTime),
				e.Kind, e.District, e.Units, e.VersionBefore, e.VersionAfter,
			)
		}
		return w.Flush()
	},
}

// -- journal export --

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export journaled edits as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries, err := listEntries(cmd)
		if err != nil {
			return err
		}

		out := struct {
			Plan    string          `yaml:"plan"`
			Entries []journal.Entry `yaml:"entries"`
		}{Plan: cfg.API.Plan, Entries: entries}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	},
}

func listEntries(cmd *cobra.Command) ([]journal.Entry, error) {
	ctx := cmd.Context()

	st, err := initJournal(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	defer closeJournal(st)

	return st.List(ctx, journal.Filter{
		Plan:  cfg.API.Plan,
		Kind:  journal.Kind(journalKind),
		Limit: journalLimit,
	})
}

func init() {
	for _, c := range []*cobra.Command{journalListCmd, journalExportCmd} {
		c.Flags().StringVar(&journalKind, "kind", "", "filter by operation kind (assign, undo, ...)")
		c.Flags().IntVar(&journalLimit, "limit", 100, "maximum entries")
	}
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalExportCmd)
	rootCmd.AddCommand(journalCmd)
}
