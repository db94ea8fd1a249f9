// Package identity wraps the IAM client. List operations return names only.
package identity

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/gurre/awswrap/aws"
)

// IAM owns one IAM client handle.
type IAM struct {
	client aws.IAMClient
}

// NewIAM creates an IAM around client.
func NewIAM(client aws.IAMClient) *IAM {
	return &IAM{client: client}
}

// CreateUser creates an IAM user.
func (i *IAM) CreateUser(ctx context.Context, userName string) (string, error) {
	_, err := i.client.CreateUser(ctx, &iam.CreateUserInput{
		UserName: sdkaws.String(userName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IAM user '%s' created successfully.", userName), nil
}

// DeleteUser deletes an IAM user.
func (i *IAM) DeleteUser(ctx context.Context, userName string) (string, error) {
	_, err := i.client.DeleteUser(ctx, &iam.DeleteUserInput{
		UserName: sdkaws.String(userName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IAM user '%s' deleted successfully.", userName), nil
}

// ListUsers returns the names of every user.
func (i *IAM) ListUsers(ctx context.Context) ([]string, error) {
	resp, err := i.client.ListUsers(ctx, &iam.ListUsersInput{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Users))
	for _, u := range resp.Users {
		names = append(names, sdkaws.ToString(u.UserName))
	}
	return names, nil
}

// CreateGroup creates an IAM group.
func (i *IAM) CreateGroup(ctx context.Context, groupName string) (string, error) {
	_, err := i.client.CreateGroup(ctx, &iam.CreateGroupInput{
		GroupName: sdkaws.String(groupName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IAM group '%s' created successfully.", groupName), nil
}

// DeleteGroup deletes an IAM group.
func (i *IAM) DeleteGroup(ctx context.Context, groupName string) (string, error) {
	_, err := i.client.DeleteGroup(ctx, &iam.DeleteGroupInput{
		GroupName: sdkaws.String(groupName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IAM group '%s' deleted successfully.", groupName), nil
}

// ListGroups returns the names of every group.
func (i *IAM) ListGroups(ctx context.Context) ([]string, error) {
	resp, err := i.client.ListGroups(ctx, &iam.ListGroupsInput{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		names = append(names, sdkaws.ToString(g.GroupName))
	}
	return names, nil
}

// AddUserToGroup adds userName to groupName.
func (i *IAM) AddUserToGroup(ctx context.Context, userName, groupName string) (string, error) {
	_, err := i.client.AddUserToGroup(ctx, &iam.AddUserToGroupInput{
		UserName:  sdkaws.String(userName),
		GroupName: sdkaws.String(groupName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("User '%s' added to group '%s'.", userName, groupName), nil
}

// RemoveUserFromGroup removes userName from groupName.
func (i *IAM) RemoveUserFromGroup(ctx context.Context, userName, groupName string) (string, error) {
	_, err := i.client.RemoveUserFromGroup(ctx, &iam.RemoveUserFromGroupInput{
		UserName:  sdkaws.String(userName),
		GroupName: sdkaws.String(groupName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("User '%s' removed from group '%s'.", userName, groupName), nil
}

// CreateRole creates a role trusted by assumeRolePolicyDocument, a JSON
// policy document.
func (i *IAM) CreateRole(ctx context.Context, roleName, assumeRolePolicyDocument string) (string, error) {
	_, err := i.client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 sdkaws.String(roleName),
		AssumeRolePolicyDocument: sdkaws.String(assumeRolePolicyDocument),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IAM role '%s' created successfully.", roleName), nil
}

// DeleteRole deletes a role.
func (i *IAM) DeleteRole(ctx context.Context, roleName string) (string, error) {
	_, err := i.client.DeleteRole(ctx, &iam.DeleteRoleInput{
		RoleName: sdkaws.String(roleName),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IAM role '%s' deleted successfully.", roleName), nil
}

// ListRoles returns the names of every role.
func (i *IAM) ListRoles(ctx context.Context) ([]string, error) {
	resp, err := i.client.ListRoles(ctx, &iam.ListRolesInput{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Roles))
	for _, r := range resp.Roles {
		names = append(names, sdkaws.ToString(r.RoleName))
	}
	return names, nil
}

// CreatePolicy creates a managed policy and returns its ARN.
func (i *IAM) CreatePolicy(ctx context.Context, policyName, policyDocument string) (string, error) {
	resp, err := i.client.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     sdkaws.String(policyName),
		PolicyDocument: sdkaws.String(policyDocument),
	})
	if err != nil {
		return "", err
	}
	if resp.Policy == nil {
		return "", fmt.Errorf("create policy %s returned no policy", policyName)
	}
	return sdkaws.ToString(resp.Policy.Arn), nil
}

// DeletePolicy deletes the managed policy policyARN.
func (i *IAM) DeletePolicy(ctx context.Context, policyARN string) (string, error) {
	_, err := i.client.DeletePolicy(ctx, &iam.DeletePolicyInput{
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IAM policy with ARN '%s' deleted successfully.", policyARN), nil
}

// ListPolicies returns policy names in scope. An empty scope lists all
// policies.
func (i *IAM) ListPolicies(ctx context.Context, scope types.PolicyScopeType) ([]string, error) {
	if scope == "" {
		scope = types.PolicyScopeTypeAll
	}
	resp, err := i.client.ListPolicies(ctx, &iam.ListPoliciesInput{
		Scope: scope,
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Policies))
	for _, p := range resp.Policies {
		names = append(names, sdkaws.ToString(p.PolicyName))
	}
	return names, nil
}

// AttachUserPolicy attaches a managed policy to a user.
func (i *IAM) AttachUserPolicy(ctx context.Context, userName, policyARN string) (string, error) {
	_, err := i.client.AttachUserPolicy(ctx, &iam.AttachUserPolicyInput{
		UserName:  sdkaws.String(userName),
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Policy '%s' attached to user '%s'.", policyARN, userName), nil
}

// DetachUserPolicy detaches a managed policy from a user.
func (i *IAM) DetachUserPolicy(ctx context.Context, userName, policyARN string) (string, error) {
	_, err := i.client.DetachUserPolicy(ctx, &iam.DetachUserPolicyInput{
		UserName:  sdkaws.String(userName),
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Policy '%s' detached from user '%s'.", policyARN, userName), nil
}

// AttachRolePolicy attaches a managed policy to a role.
func (i *IAM) AttachRolePolicy(ctx context.Context, roleName, policyARN string) (string, error) {
	_, err := i.client.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  sdkaws.String(roleName),
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Policy '%s' attached to role '%s'.", policyARN, roleName), nil
}

// DetachRolePolicy detaches a managed policy from a role.
func (i *IAM) DetachRolePolicy(ctx context.Context, roleName, policyARN string) (string, error) {
	_, err := i.client.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  sdkaws.String(roleName),
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Policy '%s' detached from role '%s'.", policyARN, roleName), nil
}

// AttachGroupPolicy attaches a managed policy to a group.
func (i *IAM) AttachGroupPolicy(ctx context.Context, groupName, policyARN string) (string, error) {
	_, err := i.client.AttachGroupPolicy(ctx, &iam.AttachGroupPolicyInput{
		GroupName: sdkaws.String(groupName),
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Policy '%s' attached to group '%s'.", policyARN, groupName), nil
}

// DetachGroupPolicy detaches a managed policy from a group.
func (i *IAM) DetachGroupPolicy(ctx context.Context, groupName, policyARN string) (string, error) {
	_, err := i.client.DetachGroupPolicy(ctx, &iam.DetachGroupPolicyInput{
		GroupName: sdkaws.String(groupName),
		PolicyArn: sdkaws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Policy '%s' detached from group '%s'.", policyARN, groupName), nil
}
