package utils

import (
	"strings"
	"testing"
)

func TestValidateAccount(t *testing.T) {
	tests := []struct {
		name        string
		account     string
		expectError bool
		errorMsg    string
	}{
		{name: "valid account", account: "alice", expectError: false},
		{name: "valid account with special characters", account: "user:domain@host-123", expectError: false},
		{name: "empty account", account: "", expectError: true, errorMsg: "account cannot be empty"},
		{
			name:        "account too long",
			account:     "this_is_a_very_long_account_that_exceeds_the_maximum_allowed_length_of_sixty_four",
			expectError: true,
			errorMsg:    "account cannot exceed 64 bytes",
		},
		{name: "account with spaces", account: "alice bob", expectError: true, errorMsg: "account contains invalid character"},
		{name: "account with non-ASCII", account: "alice_©2023", expectError: true, errorMsg: "account contains invalid character"},
		{name: "account with plus", account: "read+write_operations", expectError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccount(tt.account)
			if tt.expectError {
				if err == nil {
					t.Fatalf("ValidateAccount() expected error but got none")
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("ValidateAccount() error message = %v, want to contain %v", err.Error(), tt.errorMsg)
				}
			} else if err != nil {
				t.Errorf("ValidateAccount() unexpected error = %v", err)
			}
		})
	}
}

func TestAllowedChars(t *testing.T) {
	validChars := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-:.@+"
	for _, c := range validChars {
		if err := ValidateAccount(string(c)); err != nil {
			t.Errorf("character '%c' should be allowed but got error: %v", c, err)
		}
	}
}

func TestValidateAccount_LengthBoundary(t *testing.T) {
	validLength := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789__"
	if len(validLength) != 64 {
		t.Fatalf("test setup error: string length is %d, expected 64", len(validLength))
	}
	if err := ValidateAccount(validLength); err != nil {
		t.Errorf("exactly 64 characters should be valid, got error: %v", err)
	}

	invalidLength := validLength + "x"
	if err := ValidateAccount(invalidLength); err == nil {
		t.Error("65 characters should be invalid but got no error")
	}
}
