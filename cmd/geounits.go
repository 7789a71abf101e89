package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/districting-cli/internal/geounits"
)

var geounitsCmd = &cobra.Command{
	Use:   "geounits",
	Short: "Manage the local geounit shapefile index",
}

// -- geounits load --

var geounitsLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Parse the configured shapefiles and report index statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if len(cfg.Geounits.Shapefiles) == 0 {
			fmt.Fprintln(os.Stderr, "No shapefiles configured under geounits.shapefiles.")
			return nil
		}

		start := time.Now()
		ix, err := loadIndex(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "GEOLEVEL\tUNITS")
		for _, sf := range cfg.Geounits.Shapefiles {
			fmt.Fprintf(w, "%d\t%d\n", sf.Geolevel, ix.LevelSize(sf.Geolevel))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d geounits indexed in %s.\n", ix.Size(), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// -- geounits download --

var geounitsDownloadCmd = &cobra.Command{
	Use:   "download <url>...",
	Short: "Download shapefile archives (http, https, or ftp) into the temp dir",
	Long:  "Downloads TIGER/Line shapefile archives and extracts them into geounits.temp_dir, printing the extracted .shp path for each.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := os.MkdirAll(cfg.Geounits.TempDir, 0o755); err != nil {
			return err
		}

		d := geounits.NewDownloader(geounits.DownloaderOptions{
			UserAgent: cfg.Geounits.UserAgent,
		})

		for _, rawURL := range args {
			path, err := d.Fetch(ctx, rawURL, cfg.Geounits.TempDir)
			if err != nil {
				return err
			}
			zap.L().Info("shapefile downloaded",
				zap.String("url", rawURL),
				zap.String("path", path),
			)
			fmt.Println(path)
		}
		return nil
	},
}

func init() {
	geounitsCmd.AddCommand(geounitsLoadCmd)
	geounitsCmd.AddCommand(geounitsDownloadCmd)
	rootCmd.AddCommand(geounitsCmd)
}
