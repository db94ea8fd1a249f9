// Package cloud composes every service wrapper behind one Client. Each
// wrapper is reached through its own field, so operations keep the names
// their service gives them.
package cloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gurre/awswrap/aws"
	"github.com/gurre/awswrap/compute"
	"github.com/gurre/awswrap/config"
	"github.com/gurre/awswrap/database"
	"github.com/gurre/awswrap/identity"
	"github.com/gurre/awswrap/monitoring"
	"github.com/gurre/awswrap/queue"
	"github.com/gurre/awswrap/storage"
	"github.com/gurre/awswrap/templates"
	"github.com/sirupsen/logrus"
)

// Client owns one instance of every service wrapper. All wrappers are bound
// to the same region and none is shared with another Client.
type Client struct {
	Storage    *storage.Storage
	Database   *database.Database
	Queue      *queue.Queue
	Compute    *compute.Compute
	IAM        *identity.IAM
	Monitoring *monitoring.Monitoring
	Templates  *templates.CloudFormation

	region string
	s3     aws.S3Client
}

// Option configures New.
type Option func(*options)

type options struct {
	logger         logrus.FieldLogger
	computeOptions []compute.Option
}

// WithLogger sets the logger used while constructing the client.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithComputeOptions passes options to the compute wrapper.
func WithComputeOptions(opts ...compute.Option) Option {
	return func(o *options) {
		o.computeOptions = append(o.computeOptions, opts...)
	}
}

// New loads the AWS configuration described by cfg and builds every wrapper
// from it. Nothing is returned unless every step succeeds.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	o := newOptions(opts)

	awsCfg, err := config.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clients := aws.NewClients(awsCfg, aws.ClientOptions{
		S3UsePathStyle: cfg.S3UsePathStyle,
	})
	if err := checkClients(clients); err != nil {
		return nil, err
	}

	o.logger.WithFields(logrus.Fields{
		"region":   awsCfg.Region,
		"endpoint": cfg.Endpoint,
	}).Debug("AWS clients created")

	return build(awsCfg.Region, clients, o), nil
}

// NewFromClients builds a Client around existing service clients. Every
// client in clients must be non-nil except S3Streamer.
func NewFromClients(region string, clients aws.Clients, opts ...Option) (*Client, error) {
	if region == "" {
		region = config.DefaultRegion
	}
	if err := checkClients(clients); err != nil {
		return nil, err
	}
	return build(region, clients, newOptions(opts)), nil
}

// Region returns the region every wrapper is bound to.
func (c *Client) Region() string {
	return c.region
}

func newOptions(opts []Option) options {
	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func build(region string, clients aws.Clients, o options) *Client {
	c := &Client{
		Storage:    storage.NewStorage(clients.S3, clients.S3Streamer, region),
		Database:   database.NewDatabase(clients.DynamoDB),
		Queue:      queue.NewQueue(clients.SQS),
		Compute:    compute.NewCompute(clients.EC2, o.computeOptions...),
		IAM:        identity.NewIAM(clients.IAM),
		Monitoring: monitoring.NewMonitoring(clients.CloudWatch, clients.CloudWatchLogs),
		Templates:  templates.NewCloudFormation(clients.CloudFormation),
		region:     region,
		s3:         clients.S3,
	}
	o.logger.WithField("region", region).Debug("cloud client ready")
	return c
}

// checkClients rejects a Clients value with a missing service handle. A nil
// pointer stored in an interface counts as missing.
func checkClients(clients aws.Clients) error {
	checks := []struct {
		name   string
		client any
	}{
		{"S3", clients.S3},
		{"DynamoDB", clients.DynamoDB},
		{"SQS", clients.SQS},
		{"EC2", clients.EC2},
		{"IAM", clients.IAM},
		{"CloudWatch", clients.CloudWatch},
		{"CloudWatchLogs", clients.CloudWatchLogs},
		{"CloudFormation", clients.CloudFormation},
	}
	for _, c := range checks {
		if isNil(c.client) {
			return fmt.Errorf("%s client is required", c.name)
		}
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
