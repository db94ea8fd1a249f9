package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestDescribeError(t *testing.T) {
	plain := errors.New("boom")
	if got := describeError(plain); got != "boom" {
		t.Errorf("describeError(plain) = %q", got)
	}

	apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "not allowed"}
	wrapped := fmt.Errorf("failed to list users: %w", apiErr)
	want := wrapped.Error() + " (AccessDenied: not allowed)"
	if got := describeError(wrapped); got != want {
		t.Errorf("describeError(wrapped) = %q, want %q", got, want)
	}
}

func TestListKindsSorted(t *testing.T) {
	kinds := listKinds()
	if len(kinds) != len(listers) {
		t.Fatalf("got %d kinds, want %d", len(kinds), len(listers))
	}
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Errorf("kinds not sorted: %v", kinds)
		}
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"list", "smoke", "load-items"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s not registered: %v", name, err)
		}
	}
}
