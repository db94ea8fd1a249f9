package main

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gurre/awswrap/cloud"
	"github.com/gurre/awswrap/metrics"
	"github.com/spf13/cobra"
)

var smokeFlags struct {
	table string
	queue string
	json  bool
}

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Create, exercise and delete a table and optionally a queue",
	Long: `Runs the table lifecycle (create, put, scan, update, delete) and, when
--queue is given, wires a dead-letter queue to a new queue. Every resource is
deleted at the end of a successful run. A failing run leaves the resources
created before the failing step in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if smokeFlags.table == "" {
			smokeFlags.table = fmt.Sprintf("awswrap-smoke-%d", time.Now().Unix())
		}

		m := metrics.NewMetrics()
		runErr := client.RunSmoke(cmd.Context(), cloud.SmokeOptions{
			Table: smokeFlags.table,
			Queue: smokeFlags.queue,
		}, m, log)

		if err := printReport(cmd, m.GenerateReport(), smokeFlags.json); err != nil {
			return err
		}
		return runErr
	},
}

func printReport(cmd *cobra.Command, report metrics.Report, asJSON bool) error {
	if !asJSON {
		fmt.Fprintln(cmd.OutOrStdout(), report.String())
		return nil
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	smokeCmd.Flags().StringVar(&smokeFlags.table, "table", "", "table name (default awswrap-smoke-<unix time>)")
	smokeCmd.Flags().StringVar(&smokeFlags.queue, "queue", "", "queue name, empty skips the queue checks")
	smokeCmd.Flags().BoolVar(&smokeFlags.json, "json", false, "print the report as JSON")
}
