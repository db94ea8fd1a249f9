package main

import (
	"github.com/gurre/awswrap/cloud"
	"github.com/gurre/awswrap/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var loadFlags struct {
	req        cloud.LoadRequest
	checkpoint string
	json       bool
}

var loadItemsCmd = &cobra.Command{
	Use:   "load-items",
	Short: "Batch-write DynamoDB JSON lines stored in S3 into a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loadFlags.checkpoint != "" {
			store, err := client.OpenCheckpoint(loadFlags.checkpoint)
			if err != nil {
				return err
			}
			loadFlags.req.Checkpoint = store
		}

		m := metrics.NewMetrics()
		runErr := client.LoadItems(cmd.Context(), loadFlags.req, m, log)

		report := m.GenerateReport()
		log.WithFields(logrus.Fields{
			"items":   report.ItemsWritten,
			"corrupt": report.CorruptLines,
		}).Info("load finished")

		if err := printReport(cmd, report, loadFlags.json); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	f := loadItemsCmd.Flags()
	f.StringVar(&loadFlags.req.Bucket, "bucket", "", "source bucket")
	f.StringVar(&loadFlags.req.Prefix, "prefix", "", "load every object under this prefix")
	f.StringVar(&loadFlags.req.Table, "table", "", "destination table")
	f.IntVar(&loadFlags.req.Workers, "workers", 4, "number of concurrent objects")
	f.StringVar(&loadFlags.checkpoint, "checkpoint", "", "s3:// or file:// URI recording loaded objects for resume")
	f.BoolVar(&loadFlags.json, "json", false, "print the report as JSON")
	_ = loadItemsCmd.MarkFlagRequired("bucket")
	_ = loadItemsCmd.MarkFlagRequired("table")
}
