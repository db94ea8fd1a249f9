package cloud_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gurre/awswrap/aws"
	"github.com/gurre/awswrap/cloud"
	"github.com/gurre/awswrap/config"
	"github.com/gurre/awswrap/integration/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromClientsDefaultsRegion(t *testing.T) {
	client, err := cloud.NewFromClients("", mock.NewServices().Clients())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRegion, client.Region())

	assert.NotNil(t, client.Storage)
	assert.NotNil(t, client.Database)
	assert.NotNil(t, client.Queue)
	assert.NotNil(t, client.Compute)
	assert.NotNil(t, client.IAM)
	assert.NotNil(t, client.Monitoring)
	assert.NotNil(t, client.Templates)
}

func TestNewFromClientsRejectsMissingClient(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*aws.Clients)
	}{
		{"S3", func(c *aws.Clients) { c.S3 = nil }},
		{"DynamoDB", func(c *aws.Clients) { c.DynamoDB = nil }},
		{"SQS", func(c *aws.Clients) { c.SQS = nil }},
		{"EC2", func(c *aws.Clients) { c.EC2 = nil }},
		{"IAM", func(c *aws.Clients) { c.IAM = nil }},
		{"CloudWatch", func(c *aws.Clients) { c.CloudWatch = nil }},
		{"CloudWatchLogs", func(c *aws.Clients) { c.CloudWatchLogs = nil }},
		{"CloudFormation", func(c *aws.Clients) { c.CloudFormation = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := mock.NewServices().Clients()
			tt.clear(&clients)

			client, err := cloud.NewFromClients("us-west-2", clients)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.Contains(t, err.Error(), tt.name+" client is required")
		})
	}
}

func TestNewFromClientsRejectsNilPointerClient(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*aws.Clients)
	}{
		{"S3", func(c *aws.Clients) { c.S3 = (*s3.Client)(nil) }},
		{"DynamoDB", func(c *aws.Clients) { c.DynamoDB = (*dynamodb.Client)(nil) }},
		{"SQS", func(c *aws.Clients) { c.SQS = (*mock.SQSClient)(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := mock.NewServices().Clients()
			tt.clear(&clients)

			client, err := cloud.NewFromClients("us-west-2", clients)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.Contains(t, err.Error(), tt.name+" client is required")
		})
	}
}

func TestNewFromClientsAllowsMissingStreamer(t *testing.T) {
	clients := mock.NewServices().Clients()
	clients.S3Streamer = nil

	client, err := cloud.NewFromClients("us-west-2", clients)
	require.NoError(t, err)

	err = client.Storage.StreamLines(context.Background(), "b", "k", func([]byte, int64) error { return nil })
	assert.Error(t, err)
}

func isolateSharedConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
}

func TestNew(t *testing.T) {
	isolateSharedConfig(t)

	client, err := cloud.New(context.Background(), config.Config{
		Region:          "eu-north-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		S3UsePathStyle:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-north-1", client.Region())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	isolateSharedConfig(t)

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"bad endpoint scheme", config.Config{Endpoint: "ftp://localhost"}},
		{"half credentials", config.Config{AccessKeyID: "only-id"}},
		{"bad log level", config.Config{LogLevel: "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := cloud.New(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Nil(t, client)
		})
	}
}
