// Package compute wraps the EC2 client.
package compute

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/gurre/awswrap/aws"
)

// DefaultImageID is the AMI launched when no WithImageID option is given.
const DefaultImageID = "ami-12345678"

// NoStatus is returned by DescribeInstanceStatus when EC2 reports nothing
// for the instance.
const NoStatus = "No status found for the instance."

// Tag is a key/value pair applied by TagResource.
type Tag struct {
	Key   string
	Value string
}

// ElasticIP identifies an allocated address.
type ElasticIP struct {
	AllocationID string
	PublicIP     string
}

// Option configures a Compute.
type Option func(*Compute)

// WithImageID sets the AMI used by CreateInstance.
func WithImageID(id string) Option {
	return func(c *Compute) {
		c.imageID = id
	}
}

// Compute owns one EC2 client handle.
type Compute struct {
	client  aws.EC2Client
	imageID string
}

// NewCompute creates a Compute around client.
func NewCompute(client aws.EC2Client, opts ...Option) *Compute {
	c := &Compute{client: client, imageID: DefaultImageID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ImageID returns the AMI CreateInstance launches.
func (c *Compute) ImageID() string {
	return c.imageID
}

// CreateInstance launches one instance and returns its ID.
func (c *Compute) CreateInstance(ctx context.Context, instanceType, keyName string) (string, error) {
	resp, err := c.client.RunInstances(ctx, &ec2.RunInstancesInput{
		ImageId:      sdkaws.String(c.imageID),
		InstanceType: types.InstanceType(instanceType),
		KeyName:      sdkaws.String(keyName),
		MinCount:     sdkaws.Int32(1),
		MaxCount:     sdkaws.Int32(1),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Instances) == 0 {
		return "", fmt.Errorf("run instances returned no instance")
	}
	return sdkaws.ToString(resp.Instances[0].InstanceId), nil
}

// StopInstance stops the instance.
func (c *Compute) StopInstance(ctx context.Context, instanceID string) (string, error) {
	_, err := c.client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Instance '%s' stopped successfully.", instanceID), nil
}

// StartInstance starts the instance.
func (c *Compute) StartInstance(ctx context.Context, instanceID string) (string, error) {
	_, err := c.client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Instance '%s' started successfully.", instanceID), nil
}

// TerminateInstance terminates the instance.
func (c *Compute) TerminateInstance(ctx context.Context, instanceID string) (string, error) {
	_, err := c.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Instance '%s' terminated successfully.", instanceID), nil
}

// DescribeInstanceStatus returns the instance state name, or NoStatus.
func (c *Compute) DescribeInstanceStatus(ctx context.Context, instanceID string) (string, error) {
	resp, err := c.client.DescribeInstanceStatus(ctx, &ec2.DescribeInstanceStatusInput{
		InstanceIds:         []string{instanceID},
		IncludeAllInstances: sdkaws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	if len(resp.InstanceStatuses) == 0 || resp.InstanceStatuses[0].InstanceState == nil {
		return NoStatus, nil
	}
	return string(resp.InstanceStatuses[0].InstanceState.Name), nil
}

// CreateKeyPair creates a key pair and returns the private key material.
func (c *Compute) CreateKeyPair(ctx context.Context, keyName string) (string, error) {
	resp, err := c.client.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{
		KeyName: sdkaws.String(keyName),
	})
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(resp.KeyMaterial), nil
}

// AllocateElasticIP allocates a VPC address.
func (c *Compute) AllocateElasticIP(ctx context.Context) (ElasticIP, error) {
	resp, err := c.client.AllocateAddress(ctx, &ec2.AllocateAddressInput{
		Domain: types.DomainTypeVpc,
	})
	if err != nil {
		return ElasticIP{}, err
	}
	return ElasticIP{
		AllocationID: sdkaws.ToString(resp.AllocationId),
		PublicIP:     sdkaws.ToString(resp.PublicIp),
	}, nil
}

// AssociateElasticIP associates an allocated address with the instance.
func (c *Compute) AssociateElasticIP(ctx context.Context, allocationID, instanceID string) (string, error) {
	_, err := c.client.AssociateAddress(ctx, &ec2.AssociateAddressInput{
		AllocationId: sdkaws.String(allocationID),
		InstanceId:   sdkaws.String(instanceID),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Elastic IP associated with instance '%s'.", instanceID), nil
}

// TagResource applies tags to any EC2 resource.
func (c *Compute) TagResource(ctx context.Context, resourceID string, tags []Tag) (string, error) {
	sdkTags := make([]types.Tag, 0, len(tags))
	for _, t := range tags {
		sdkTags = append(sdkTags, types.Tag{
			Key:   sdkaws.String(t.Key),
			Value: sdkaws.String(t.Value),
		})
	}

	_, err := c.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{resourceID},
		Tags:      sdkTags,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Tags %v added to resource '%s'.", tags, resourceID), nil
}

// CreateVolume creates an EBS volume of sizeGiB and returns its ID.
func (c *Compute) CreateVolume(ctx context.Context, availabilityZone string, sizeGiB int32) (string, error) {
	resp, err := c.client.CreateVolume(ctx, &ec2.CreateVolumeInput{
		AvailabilityZone: sdkaws.String(availabilityZone),
		Size:             sdkaws.Int32(sizeGiB),
	})
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(resp.VolumeId), nil
}

// AttachVolume attaches the volume to the instance as device.
func (c *Compute) AttachVolume(ctx context.Context, volumeID, instanceID, device string) (string, error) {
	_, err := c.client.AttachVolume(ctx, &ec2.AttachVolumeInput{
		VolumeId:   sdkaws.String(volumeID),
		InstanceId: sdkaws.String(instanceID),
		Device:     sdkaws.String(device),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Volume '%s' attached to instance '%s'.", volumeID, instanceID), nil
}

// EnableMonitoring turns on detailed monitoring.
func (c *Compute) EnableMonitoring(ctx context.Context, instanceID string) (string, error) {
	_, err := c.client.MonitorInstances(ctx, &ec2.MonitorInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Monitoring enabled for instance '%s'.", instanceID), nil
}

// DisableMonitoring turns off detailed monitoring.
func (c *Compute) DisableMonitoring(ctx context.Context, instanceID string) (string, error) {
	_, err := c.client.UnmonitorInstances(ctx, &ec2.UnmonitorInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Monitoring disabled for instance '%s'.", instanceID), nil
}
