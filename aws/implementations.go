package aws

import (
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gurre/s3streamer"
)

// Clients holds one client handle per service. All handles built by
// NewClients share a single aws.Config and therefore a single region.
type Clients struct {
	S3             S3Client
	S3Streamer     s3streamer.Streamer
	DynamoDB       DynamoDBClient
	SQS            SQSClient
	EC2            EC2Client
	IAM            IAMClient
	CloudWatch     CloudWatchClient
	CloudWatchLogs CloudWatchLogsClient
	CloudFormation CloudFormationClient
}

// ClientOptions tweaks how the SDK clients are built.
type ClientOptions struct {
	// S3UsePathStyle forces path-style bucket addressing, required by most
	// S3-compatible endpoints such as LocalStack or MinIO.
	S3UsePathStyle bool
}

// NewClients creates every service client from cfg.
func NewClients(cfg sdkaws.Config, opts ClientOptions) Clients {
	rawS3 := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.S3UsePathStyle
	})

	return Clients{
		S3:             rawS3,
		S3Streamer:     s3streamer.NewS3Streamer(rawS3),
		DynamoDB:       dynamodb.NewFromConfig(cfg),
		SQS:            sqs.NewFromConfig(cfg),
		EC2:            ec2.NewFromConfig(cfg),
		IAM:            iam.NewFromConfig(cfg),
		CloudWatch:     cloudwatch.NewFromConfig(cfg),
		CloudWatchLogs: cloudwatchlogs.NewFromConfig(cfg),
		CloudFormation: cloudformation.NewFromConfig(cfg),
	}
}
