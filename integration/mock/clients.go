package mock

import (
	"github.com/gurre/awswrap/aws"
)

// Services bundles the stateful fakes behind a Clients value so tests can
// inspect what the wrappers did.
type Services struct {
	S3       *S3Client
	DynamoDB *DynamoDBClient
	SQS      *SQSClient
	EC2      *EC2Client
}

var (
	_ aws.S3Client       = (*S3Client)(nil)
	_ aws.DynamoDBClient = (*DynamoDBClient)(nil)
	_ aws.SQSClient      = (*SQSClient)(nil)
	_ aws.EC2Client      = (*EC2Client)(nil)
)

// The remaining services have no fake; calling them panics. Tests that need
// them inject their own client.
type (
	iamStub            struct{ aws.IAMClient }
	cloudWatchStub     struct{ aws.CloudWatchClient }
	cloudWatchLogsStub struct{ aws.CloudWatchLogsClient }
	cloudFormationStub struct{ aws.CloudFormationClient }
)

// NewServices creates empty fakes.
func NewServices() *Services {
	return &Services{
		S3:       NewS3Client(),
		DynamoDB: NewDynamoDBClient(),
		SQS:      NewSQSClient(),
		EC2:      NewEC2Client(),
	}
}

// Clients returns a complete aws.Clients backed by the fakes.
func (s *Services) Clients() aws.Clients {
	return aws.Clients{
		S3:             s.S3,
		S3Streamer:     s.S3,
		DynamoDB:       s.DynamoDB,
		SQS:            s.SQS,
		EC2:            s.EC2,
		IAM:            iamStub{},
		CloudWatch:     cloudWatchStub{},
		CloudWatchLogs: cloudWatchLogsStub{},
		CloudFormation: cloudFormationStub{},
	}
}
