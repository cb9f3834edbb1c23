package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/lanube360/mirador-lotes/internal/api"
	"github.com/lanube360/mirador-lotes/internal/catalog"
	"github.com/lanube360/mirador-lotes/internal/config"
	"github.com/lanube360/mirador-lotes/internal/pipeline"
	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/pkg/core"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "lotes",
		Short:        "Parcel catalog for the 360° tour",
		Long:         `Migrates the tour's krpano documents into the parcel store, verifies the stored data and serves the parcel catalog API.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./"+config.ConfigFileName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(a),
		newVerifyCmd(a),
		newParcelsCmd(a),
		newServeCmd(a),
	)
	return root
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func closeStorage(a *app, store storage.Backend) {
	if err := store.Close(); err != nil {
		a.logger.Error("Failed to close storage backend", "error", err)
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	var (
		watch  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Extract parcels from the krpano documents and store them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			deps := pipeline.Dependencies{Logger: a.logger, RunContext: a.run}
			if !dryRun {
				store, err := a.openStorage()
				if err != nil {
					return err
				}
				defer closeStorage(a, store)
				deps.Store = store
				deps.Metrics = a.openMetrics(ctx)
			}

			m, err := pipeline.NewMigrator(deps)
			if err != nil {
				return err
			}
			opts := pipeline.Options{
				Project:     config.GetProjectConfig(),
				Sources:     config.GetSourcesConfig(),
				StorageType: config.GetStorageConfig().Type,
				DryRun:      dryRun,
			}
			out := cmd.OutOrStdout()

			if watch {
				a.logger.Info("Watching sources for changes", "spots", opts.Sources.Spots, "data", opts.Sources.Data, "tour", opts.Sources.Tour)
				return m.Watch(ctx, opts, pipeline.DefaultDebounce, func(res pipeline.Result, err error) {
					if err == nil {
						printRunSummary(out, res)
					}
				})
			}

			res, err := m.Run(ctx, opts)
			if err != nil {
				return err
			}
			printRunSummary(out, res)
			if dryRun {
				printParcels(out, res.Parcels)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run whenever a source document changes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract and merge without storing anything")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Read the stored project and parcels back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want text or yaml)", format)
			}
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer closeStorage(a, store)

			slug := config.GetProjectConfig().Slug
			report, err := pipeline.Verify(cmd.Context(), store, slug)
			if err != nil {
				return err
			}
			a.logger.Info("Verification complete", "project", slug, "found", report.ProjectFound, "parcels", report.ParcelCount)

			if format == "yaml" {
				return report.WriteYAML(cmd.OutOrStdout())
			}
			return report.WriteText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or yaml")
	return cmd
}

func newParcelsCmd(a *app) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "parcels",
		Short: "List stored parcels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer closeStorage(a, store)

			cat := catalog.NewService(store, config.GetProjectConfig().Slug, a.logger)
			parcels, err := cat.List(cmd.Context(), query)
			if err != nil {
				return err
			}
			stats, err := cat.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printParcels(out, parcels)
			fmt.Fprintf(out, "\n%d of %d parcels", len(parcels), stats.Total)
			for _, info := range core.Statuses {
				fmt.Fprintf(out, ", %s: %d", info.Label, stats.ByStatus[info.Value])
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by id, name or status")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the parcel catalog API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			store, err := a.openStorage()
			if err != nil {
				return err
			}
			defer closeStorage(a, store)

			cat := catalog.NewService(store, config.GetProjectConfig().Slug, a.logger)
			srv := api.NewServer(cat, a.logger, config.GetHTTPConfig())
			return srv.ListenAndServe(ctx)
		},
	}
}

func printRunSummary(w io.Writer, res pipeline.Result) {
	mode := "stored"
	if res.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Run %s (%s): %d parcels, %d scene placements, %d markers, %d fichas, %d scene assignments in %s\n",
		res.RunID, mode, res.Report.Parcels, res.Report.Placements,
		res.Report.Markers, res.Report.Facts, res.Report.Assignments, res.Duration.Round(time.Millisecond))
}

func printParcels(w io.Writer, parcels []core.ParcelSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tTOTAL m2\tUSABLE m2\tSCENES")
	for _, p := range parcels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%d\n", p.ID, p.Title(), p.Status, p.TotalArea, p.UsableArea, len(p.Scenes))
	}
	tw.Flush()
}
