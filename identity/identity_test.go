package identity

import (
	"context"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "123456789012"

// fakeIAMClient keeps users, groups, roles and policies in memory.
type fakeIAMClient struct {
	users       map[string]bool
	groups      map[string]bool
	roles       map[string]bool
	policies    map[string]string // ARN -> name
	members     map[string]string // user -> group
	attached    map[string]string // principal -> policy ARN
	listedScope types.PolicyScopeType
}

func newFakeIAMClient() *fakeIAMClient {
	return &fakeIAMClient{
		users:    make(map[string]bool),
		groups:   make(map[string]bool),
		roles:    make(map[string]bool),
		policies: make(map[string]string),
		members:  make(map[string]string),
		attached: make(map[string]string),
	}
}

func noSuchEntity(name string) error {
	return &types.NoSuchEntityException{Message: sdkaws.String(name + " not found")}
}

func (f *fakeIAMClient) CreateUser(ctx context.Context, params *iam.CreateUserInput, optFns ...func(*iam.Options)) (*iam.CreateUserOutput, error) {
	name := sdkaws.ToString(params.UserName)
	if f.users[name] {
		return nil, &types.EntityAlreadyExistsException{Message: sdkaws.String(name)}
	}
	f.users[name] = true
	return &iam.CreateUserOutput{User: &types.User{UserName: params.UserName}}, nil
}

func (f *fakeIAMClient) DeleteUser(ctx context.Context, params *iam.DeleteUserInput, optFns ...func(*iam.Options)) (*iam.DeleteUserOutput, error) {
	name := sdkaws.ToString(params.UserName)
	if !f.users[name] {
		return nil, noSuchEntity(name)
	}
	delete(f.users, name)
	return &iam.DeleteUserOutput{}, nil
}

func (f *fakeIAMClient) ListUsers(ctx context.Context, params *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error) {
	out := &iam.ListUsersOutput{}
	for name := range f.users {
		out.Users = append(out.Users, types.User{UserName: sdkaws.String(name)})
	}
	return out, nil
}

func (f *fakeIAMClient) CreateGroup(ctx context.Context, params *iam.CreateGroupInput, optFns ...func(*iam.Options)) (*iam.CreateGroupOutput, error) {
	f.groups[sdkaws.ToString(params.GroupName)] = true
	return &iam.CreateGroupOutput{}, nil
}

func (f *fakeIAMClient) DeleteGroup(ctx context.Context, params *iam.DeleteGroupInput, optFns ...func(*iam.Options)) (*iam.DeleteGroupOutput, error) {
	delete(f.groups, sdkaws.ToString(params.GroupName))
	return &iam.DeleteGroupOutput{}, nil
}

func (f *fakeIAMClient) ListGroups(ctx context.Context, params *iam.ListGroupsInput, optFns ...func(*iam.Options)) (*iam.ListGroupsOutput, error) {
	out := &iam.ListGroupsOutput{}
	for name := range f.groups {
		out.Groups = append(out.Groups, types.Group{GroupName: sdkaws.String(name)})
	}
	return out, nil
}

func (f *fakeIAMClient) AddUserToGroup(ctx context.Context, params *iam.AddUserToGroupInput, optFns ...func(*iam.Options)) (*iam.AddUserToGroupOutput, error) {
	user, group := sdkaws.ToString(params.UserName), sdkaws.ToString(params.GroupName)
	if !f.users[user] || !f.groups[group] {
		return nil, noSuchEntity(user + "/" + group)
	}
	f.members[user] = group
	return &iam.AddUserToGroupOutput{}, nil
}

func (f *fakeIAMClient) RemoveUserFromGroup(ctx context.Context, params *iam.RemoveUserFromGroupInput, optFns ...func(*iam.Options)) (*iam.RemoveUserFromGroupOutput, error) {
	delete(f.members, sdkaws.ToString(params.UserName))
	return &iam.RemoveUserFromGroupOutput{}, nil
}

func (f *fakeIAMClient) CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	f.roles[sdkaws.ToString(params.RoleName)] = true
	return &iam.CreateRoleOutput{}, nil
}

func (f *fakeIAMClient) DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	delete(f.roles, sdkaws.ToString(params.RoleName))
	return &iam.DeleteRoleOutput{}, nil
}

func (f *fakeIAMClient) ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
	out := &iam.ListRolesOutput{}
	for name := range f.roles {
		out.Roles = append(out.Roles, types.Role{RoleName: sdkaws.String(name)})
	}
	return out, nil
}

func (f *fakeIAMClient) CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	name := sdkaws.ToString(params.PolicyName)
	arn := "arn:aws:iam::" + testAccount + ":policy/" + name
	f.policies[arn] = name
	return &iam.CreatePolicyOutput{Policy: &types.Policy{Arn: sdkaws.String(arn), PolicyName: params.PolicyName}}, nil
}

func (f *fakeIAMClient) DeletePolicy(ctx context.Context, params *iam.DeletePolicyInput, optFns ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	arn := sdkaws.ToString(params.PolicyArn)
	if _, ok := f.policies[arn]; !ok {
		return nil, noSuchEntity(arn)
	}
	delete(f.policies, arn)
	return &iam.DeletePolicyOutput{}, nil
}

func (f *fakeIAMClient) ListPolicies(ctx context.Context, params *iam.ListPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	f.listedScope = params.Scope
	out := &iam.ListPoliciesOutput{}
	for _, name := range f.policies {
		out.Policies = append(out.Policies, types.Policy{PolicyName: sdkaws.String(name)})
	}
	return out, nil
}

func (f *fakeIAMClient) attach(principal, arn string) error {
	if _, ok := f.policies[arn]; !ok {
		return noSuchEntity(arn)
	}
	f.attached[principal] = arn
	return nil
}

func (f *fakeIAMClient) AttachUserPolicy(ctx context.Context, params *iam.AttachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.AttachUserPolicyOutput, error) {
	return &iam.AttachUserPolicyOutput{}, f.attach("user/"+sdkaws.ToString(params.UserName), sdkaws.ToString(params.PolicyArn))
}

func (f *fakeIAMClient) DetachUserPolicy(ctx context.Context, params *iam.DetachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachUserPolicyOutput, error) {
	delete(f.attached, "user/"+sdkaws.ToString(params.UserName))
	return &iam.DetachUserPolicyOutput{}, nil
}

func (f *fakeIAMClient) AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	return &iam.AttachRolePolicyOutput{}, f.attach("role/"+sdkaws.ToString(params.RoleName), sdkaws.ToString(params.PolicyArn))
}

func (f *fakeIAMClient) DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	delete(f.attached, "role/"+sdkaws.ToString(params.RoleName))
	return &iam.DetachRolePolicyOutput{}, nil
}

func (f *fakeIAMClient) AttachGroupPolicy(ctx context.Context, params *iam.AttachGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.AttachGroupPolicyOutput, error) {
	return &iam.AttachGroupPolicyOutput{}, f.attach("group/"+sdkaws.ToString(params.GroupName), sdkaws.ToString(params.PolicyArn))
}

func (f *fakeIAMClient) DetachGroupPolicy(ctx context.Context, params *iam.DetachGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachGroupPolicyOutput, error) {
	delete(f.attached, "group/"+sdkaws.ToString(params.GroupName))
	return &iam.DetachGroupPolicyOutput{}, nil
}

const testPolicyDocument = `{
	"Version": "2012-10-17",
	"Statement": [{"Effect": "Allow", "Action": "s3:ListBucket", "Resource": "arn:aws:s3:::example-bucket"}]
}`

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	i := NewIAM(newFakeIAMClient())

	msg, err := i.CreateUser(ctx, "test-user")
	require.NoError(t, err)
	assert.Equal(t, "IAM user 'test-user' created successfully.", msg)

	users, err := i.ListUsers(ctx)
	require.NoError(t, err)
	assert.Contains(t, users, "test-user")

	msg, err = i.DeleteUser(ctx, "test-user")
	require.NoError(t, err)
	assert.Equal(t, "IAM user 'test-user' deleted successfully.", msg)

	users, err = i.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotContains(t, users, "test-user")
}

func TestCreateUserTwiceReturnsProviderError(t *testing.T) {
	ctx := context.Background()
	i := NewIAM(newFakeIAMClient())

	_, err := i.CreateUser(ctx, "dup")
	require.NoError(t, err)
	_, err = i.CreateUser(ctx, "dup")

	var exists *types.EntityAlreadyExistsException
	assert.ErrorAs(t, err, &exists)
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	i := NewIAM(newFakeIAMClient())

	_, err := i.CreateUser(ctx, "test-user")
	require.NoError(t, err)
	msg, err := i.CreateGroup(ctx, "test-group")
	require.NoError(t, err)
	assert.Equal(t, "IAM group 'test-group' created successfully.", msg)

	groups, err := i.ListGroups(ctx)
	require.NoError(t, err)
	assert.Contains(t, groups, "test-group")

	msg, err = i.AddUserToGroup(ctx, "test-user", "test-group")
	require.NoError(t, err)
	assert.Equal(t, "User 'test-user' added to group 'test-group'.", msg)

	msg, err = i.RemoveUserFromGroup(ctx, "test-user", "test-group")
	require.NoError(t, err)
	assert.Equal(t, "User 'test-user' removed from group 'test-group'.", msg)

	msg, err = i.DeleteGroup(ctx, "test-group")
	require.NoError(t, err)
	assert.Equal(t, "IAM group 'test-group' deleted successfully.", msg)
}

func TestRoleLifecycle(t *testing.T) {
	ctx := context.Background()
	i := NewIAM(newFakeIAMClient())
	trust := `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"ec2.amazonaws.com"},"Action":"sts:AssumeRole"}]}`

	msg, err := i.CreateRole(ctx, "test-role", trust)
	require.NoError(t, err)
	assert.Equal(t, "IAM role 'test-role' created successfully.", msg)

	roles, err := i.ListRoles(ctx)
	require.NoError(t, err)
	assert.Contains(t, roles, "test-role")

	msg, err = i.DeleteRole(ctx, "test-role")
	require.NoError(t, err)
	assert.Equal(t, "IAM role 'test-role' deleted successfully.", msg)

	roles, err = i.ListRoles(ctx)
	require.NoError(t, err)
	assert.NotContains(t, roles, "test-role")
}

func TestPolicyLifecycle(t *testing.T) {
	ctx := context.Background()
	fake := newFakeIAMClient()
	i := NewIAM(fake)

	arn, err := i.CreatePolicy(ctx, "test-policy", testPolicyDocument)
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:iam::123456789012:policy/test-policy", arn)

	names, err := i.ListPolicies(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test-policy")
	assert.Equal(t, types.PolicyScopeTypeAll, fake.listedScope)

	_, err = i.ListPolicies(ctx, types.PolicyScopeTypeLocal)
	require.NoError(t, err)
	assert.Equal(t, types.PolicyScopeTypeLocal, fake.listedScope)

	msg, err := i.DeletePolicy(ctx, arn)
	require.NoError(t, err)
	assert.Equal(t, "IAM policy with ARN '"+arn+"' deleted successfully.", msg)
}

func TestAttachDetachPolicies(t *testing.T) {
	ctx := context.Background()
	i := NewIAM(newFakeIAMClient())

	_, err := i.CreateUser(ctx, "test-user")
	require.NoError(t, err)
	arn, err := i.CreatePolicy(ctx, "test-policy", testPolicyDocument)
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() (string, error)
		want string
	}{
		{"attach user", func() (string, error) { return i.AttachUserPolicy(ctx, "test-user", arn) }, "Policy '" + arn + "' attached to user 'test-user'."},
		{"detach user", func() (string, error) { return i.DetachUserPolicy(ctx, "test-user", arn) }, "Policy '" + arn + "' detached from user 'test-user'."},
		{"attach role", func() (string, error) { return i.AttachRolePolicy(ctx, "r", arn) }, "Policy '" + arn + "' attached to role 'r'."},
		{"detach role", func() (string, error) { return i.DetachRolePolicy(ctx, "r", arn) }, "Policy '" + arn + "' detached from role 'r'."},
		{"attach group", func() (string, error) { return i.AttachGroupPolicy(ctx, "g", arn) }, "Policy '" + arn + "' attached to group 'g'."},
		{"detach group", func() (string, error) { return i.DetachGroupPolicy(ctx, "g", arn) }, "Policy '" + arn + "' detached from group 'g'."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = i.AttachUserPolicy(ctx, "test-user", "arn:aws:iam::123456789012:policy/missing")
	var missing *types.NoSuchEntityException
	assert.ErrorAs(t, err, &missing)
}
