package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-etl/constants"
	"github.com/joseph-ayodele/jobs-etl/internal/common"
	"github.com/joseph-ayodele/jobs-etl/internal/export"
	"github.com/joseph-ayodele/jobs-etl/internal/pipeline"
	repo "github.com/joseph-ayodele/jobs-etl/internal/repository"
)

type rootOptions struct {
	envFile    string
	source     string
	retries    int
	retryDelay time.Duration
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	a := &app{}

	cmd := &cobra.Command{
		Use:          "jobs-etl",
		Short:        "Extract, transform and load job postings into a relational store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := common.LoadDotEnv(opts.envFile); err != nil {
				return fmt.Errorf("load %s: %w", opts.envFile, err)
			}
			cfg := common.LoadConfig()

			flags := cmd.Flags()
			if flags.Changed("source") {
				cfg.Source.Path = opts.source
			}
			if flags.Changed("retries") {
				cfg.Pipeline.Retries = opts.retries
			}
			if flags.Changed("retry-delay") {
				cfg.Pipeline.RetryDelay = opts.retryDelay
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = common.NewLogger(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}
	// finalizers also run when RunE fails, unlike PersistentPostRun
	cobra.OnFinalize(a.close)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&opts.source, "source", "", "source CSV or XLSX file (overrides SOURCE_PATH)")
	pf.IntVar(&opts.retries, "retries", 3, "retries per stage after the first attempt (overrides PIPELINE_RETRIES)")
	pf.DurationVar(&opts.retryDelay, "retry-delay", 15*time.Minute, "delay between stage attempts (overrides PIPELINE_RETRY_DELAY)")

	cmd.AddCommand(
		newRunCmd(a),
		newStageCmd(a, "init-schema", "Create the job tables if they do not exist", constants.StageSchemaInit),
		newStageCmd(a, "extract", "Write each source row to the extracted staging directory", constants.StageExtract),
		newStageCmd(a, "transform", "Map staged JSON-LD payloads to job records", constants.StageTransform),
		newCheckTablesCmd(a),
		newStageCmd(a, "load", "Insert transformed records into the store", constants.StageLoad),
		newExportCmd(a),
	)
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage in order, optionally on a fixed schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("every") {
				a.cfg.Pipeline.Every = every
			}

			o, err := a.orchestrator(ctx, constants.Stages...)
			if err != nil {
				return err
			}
			if a.cfg.Pipeline.Every <= 0 {
				report, err := o.Run(ctx)
				printReport(cmd, report)
				return err
			}

			a.logger.Info("scheduler.start", "every", a.cfg.Pipeline.Every.String())
			err = pipeline.NewScheduler(o, a.cfg.Pipeline.Every, a.logger).Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "repeat the pipeline at this interval until interrupted (overrides PIPELINE_EVERY)")
	return cmd
}

// newStageCmd runs a single stage under the same retry policy as a full run.
func newStageCmd(a *app, use, short string, name constants.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.orchestrator(cmd.Context(), name)
			if err != nil {
				return err
			}
			sr, err := o.RunStage(cmd.Context(), name)
			printReport(cmd, pipeline.RunReport{Stages: []pipeline.StageReport{sr}})
			return err
		},
	}
}

func newCheckTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-tables",
		Short: "List the tables in the store and report any expected table that is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			schema := repo.NewSchemaRepository(drv, a.logger)
			tables, err := schema.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tables {
				_, _ = fmt.Fprintln(out, t)
			}
			missing, err := pipeline.NewVerifyStage(schema, a.logger).Check(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range missing {
				_, _ = fmt.Fprintf(out, "missing: %s\n", m)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the loaded jobs to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("out") {
				a.cfg.Export.Path = out
			}
			drv, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			data, err := export.NewService(repo.NewJobRepository(drv, a.logger), a.logger).ExportJobsXLSX(cmd.Context())
			if err != nil {
				return err
			}
			path := a.cfg.Export.Path
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create export dir: %w", err)
				}
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output workbook path (overrides EXPORT_PATH)")
	return cmd
}

func printReport(cmd *cobra.Command, report pipeline.RunReport) {
	out := cmd.OutOrStdout()
	if report.RunID != "" {
		_, _ = fmt.Fprintf(out, "run %s (%s)\n", report.RunID, report.Duration.Round(time.Millisecond))
	}
	for _, s := range report.Stages {
		line := fmt.Sprintf("%-12s %-10s attempts=%d %s", s.Stage, s.Status, s.Attempts, s.Duration.Round(time.Millisecond))
		if s.Err != nil {
			line += " error=" + s.Err.Error()
		}
		_, _ = fmt.Fprintln(out, line)
	}
}
