package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"
)

// listers maps a resource kind to the call that lists it.
var listers = map[string]func(ctx context.Context) ([]string, error){
	"buckets": func(ctx context.Context) ([]string, error) {
		buckets, err := client.Storage.ListBuckets(ctx)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(buckets))
		for _, b := range buckets {
			names = append(names, sdkaws.ToString(b.Name))
		}
		return names, nil
	},
	"tables":     func(ctx context.Context) ([]string, error) { return client.Database.ListTables(ctx) },
	"queues":     func(ctx context.Context) ([]string, error) { return client.Queue.ListQueues(ctx) },
	"users":      func(ctx context.Context) ([]string, error) { return client.IAM.ListUsers(ctx) },
	"roles":      func(ctx context.Context) ([]string, error) { return client.IAM.ListRoles(ctx) },
	"alarms":     func(ctx context.Context) ([]string, error) { return client.Monitoring.ListAlarms(ctx) },
	"dashboards": func(ctx context.Context) ([]string, error) { return client.Monitoring.ListDashboards(ctx) },
	"stacks":     func(ctx context.Context) ([]string, error) { return client.Templates.ListStacks(ctx) },
}

func listKinds() []string {
	kinds := make([]string, 0, len(listers))
	for k := range listers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

var listCmd = &cobra.Command{
	Use:       "list <kind>",
	Short:     "List resources of one kind",
	Long:      "List resources of one kind: " + strings.Join(listKinds(), ", ") + ".",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: listKinds(),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := listers[args[0]](cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", args[0], err)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		log.WithField("count", len(names)).Debugf("listed %s", args[0])
		return nil
	},
}
