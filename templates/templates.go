// Package templates wraps the CloudFormation client: stacks, templates,
// change sets and stack policies.
package templates

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/gurre/awswrap/aws"
)

// stackOptions holds the parameters and capabilities of a stack or change set
// request.
type stackOptions struct {
	parameters   []types.Parameter
	capabilities []types.Capability
}

// StackOption sets an optional stack or change set field.
type StackOption func(*stackOptions)

// WithParameter adds a template parameter.
func WithParameter(key, value string) StackOption {
	return func(o *stackOptions) {
		o.parameters = append(o.parameters, types.Parameter{
			ParameterKey:   sdkaws.String(key),
			ParameterValue: sdkaws.String(value),
		})
	}
}

// WithCapabilities replaces the default CAPABILITY_NAMED_IAM capability.
func WithCapabilities(capabilities ...types.Capability) StackOption {
	return func(o *stackOptions) {
		o.capabilities = append([]types.Capability{}, capabilities...)
	}
}

// newStackOptions builds fresh defaults for every request.
func newStackOptions(opts []StackOption) stackOptions {
	o := stackOptions{
		parameters:   []types.Parameter{},
		capabilities: []types.Capability{types.CapabilityCapabilityNamedIam},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DefaultStatusFilter returns the statuses ListStacks uses when no filter is
// given.
func DefaultStatusFilter() []types.StackStatus {
	return []types.StackStatus{types.StackStatusCreateComplete, types.StackStatusUpdateComplete}
}

// CloudFormation owns one CloudFormation client handle.
type CloudFormation struct {
	client aws.CloudFormationClient
}

// NewCloudFormation creates a CloudFormation around client.
func NewCloudFormation(client aws.CloudFormationClient) *CloudFormation {
	return &CloudFormation{client: client}
}

// CreateStack starts stack creation. It returns once the request is accepted.
func (c *CloudFormation) CreateStack(ctx context.Context, stackName, templateBody string, opts ...StackOption) (string, error) {
	o := newStackOptions(opts)
	_, err := c.client.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    sdkaws.String(stackName),
		TemplateBody: sdkaws.String(templateBody),
		Parameters:   o.parameters,
		Capabilities: o.capabilities,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CloudFormation stack '%s' creation initiated.", stackName), nil
}

// UpdateStack starts a stack update.
func (c *CloudFormation) UpdateStack(ctx context.Context, stackName, templateBody string, opts ...StackOption) (string, error) {
	o := newStackOptions(opts)
	_, err := c.client.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    sdkaws.String(stackName),
		TemplateBody: sdkaws.String(templateBody),
		Parameters:   o.parameters,
		Capabilities: o.capabilities,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CloudFormation stack '%s' update initiated.", stackName), nil
}

// DeleteStack starts stack deletion.
func (c *CloudFormation) DeleteStack(ctx context.Context, stackName string) (string, error) {
	_, err := c.client.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: sdkaws.String(stackName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CloudFormation stack '%s' deletion initiated.", stackName), nil
}

// ListStacks returns the names of stacks in one of statuses, or in
// DefaultStatusFilter when none are given.
func (c *CloudFormation) ListStacks(ctx context.Context, statuses ...types.StackStatus) ([]string, error) {
	if len(statuses) == 0 {
		statuses = DefaultStatusFilter()
	}
	resp, err := c.client.ListStacks(ctx, &cloudformation.ListStacksInput{
		StackStatusFilter: statuses,
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.StackSummaries))
	for _, s := range resp.StackSummaries {
		names = append(names, sdkaws.ToString(s.StackName))
	}
	return names, nil
}

// DescribeStack returns the stack description.
func (c *CloudFormation) DescribeStack(ctx context.Context, stackName string) (*types.Stack, error) {
	resp, err := c.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: sdkaws.String(stackName),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found in describe response", stackName)
	}
	return &resp.Stacks[0], nil
}

// DescribeStackResources returns the resources of a stack.
func (c *CloudFormation) DescribeStackResources(ctx context.Context, stackName string) ([]types.StackResource, error) {
	resp, err := c.client.DescribeStackResources(ctx, &cloudformation.DescribeStackResourcesInput{
		StackName: sdkaws.String(stackName),
	})
	if err != nil {
		return nil, err
	}
	return resp.StackResources, nil
}

// ValidateTemplate returns the full validation response.
func (c *CloudFormation) ValidateTemplate(ctx context.Context, templateBody string) (*cloudformation.ValidateTemplateOutput, error) {
	return c.client.ValidateTemplate(ctx, &cloudformation.ValidateTemplateInput{
		TemplateBody: sdkaws.String(templateBody),
	})
}

// GetTemplate returns the template body of an existing stack.
func (c *CloudFormation) GetTemplate(ctx context.Context, stackName string) (string, error) {
	resp, err := c.client.GetTemplate(ctx, &cloudformation.GetTemplateInput{
		StackName: sdkaws.String(stackName),
	})
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(resp.TemplateBody), nil
}

// DescribeStackEvents returns the stack events, newest first.
func (c *CloudFormation) DescribeStackEvents(ctx context.Context, stackName string) ([]types.StackEvent, error) {
	resp, err := c.client.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: sdkaws.String(stackName),
	})
	if err != nil {
		return nil, err
	}
	return resp.StackEvents, nil
}

// CreateChangeSet starts change set creation for stackName.
func (c *CloudFormation) CreateChangeSet(ctx context.Context, stackName, templateBody, changeSetName string, opts ...StackOption) (string, error) {
	o := newStackOptions(opts)
	_, err := c.client.CreateChangeSet(ctx, &cloudformation.CreateChangeSetInput{
		StackName:     sdkaws.String(stackName),
		TemplateBody:  sdkaws.String(templateBody),
		ChangeSetName: sdkaws.String(changeSetName),
		Parameters:    o.parameters,
		Capabilities:  o.capabilities,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Change set '%s' creation initiated for stack '%s'.", changeSetName, stackName), nil
}

// DescribeChangeSet returns the full change set description.
func (c *CloudFormation) DescribeChangeSet(ctx context.Context, changeSetName, stackName string) (*cloudformation.DescribeChangeSetOutput, error) {
	return c.client.DescribeChangeSet(ctx, &cloudformation.DescribeChangeSetInput{
		ChangeSetName: sdkaws.String(changeSetName),
		StackName:     sdkaws.String(stackName),
	})
}

// ExecuteChangeSet applies a created change set to its stack.
func (c *CloudFormation) ExecuteChangeSet(ctx context.Context, changeSetName, stackName string) (string, error) {
	_, err := c.client.ExecuteChangeSet(ctx, &cloudformation.ExecuteChangeSetInput{
		ChangeSetName: sdkaws.String(changeSetName),
		StackName:     sdkaws.String(stackName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Change set '%s' executed for stack '%s'.", changeSetName, stackName), nil
}

// SetStackPolicy replaces the stack policy with policyBody.
func (c *CloudFormation) SetStackPolicy(ctx context.Context, stackName, policyBody string) (string, error) {
	_, err := c.client.SetStackPolicy(ctx, &cloudformation.SetStackPolicyInput{
		StackName:       sdkaws.String(stackName),
		StackPolicyBody: sdkaws.String(policyBody),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Stack policy set for stack '%s'.", stackName), nil
}

// GetStackPolicy returns the stack policy body, empty when none is set.
func (c *CloudFormation) GetStackPolicy(ctx context.Context, stackName string) (string, error) {
	resp, err := c.client.GetStackPolicy(ctx, &cloudformation.GetStackPolicyInput{
		StackName: sdkaws.String(stackName),
	})
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(resp.StackPolicyBody), nil
}
