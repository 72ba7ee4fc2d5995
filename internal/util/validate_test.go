package util

import (
	"strings"
	"testing"
)

func TestValidateProjectID_Valid(t *testing.T) {
	valid := []string{
		"proj-1",
		"my-project-123",
		"abcdef",
		"a12345",
		"gcpm-demo-project-0000000000ab",
	}
	for _, id := range valid {
		t.Run(id, func(t *testing.T) {
			if err := ValidateProjectID(id); err != nil {
				t.Errorf("expected %q to be valid, got error: %v", id, err)
			}
		})
	}
}

func TestValidateProjectID_Invalid(t *testing.T) {
	tests := []struct {
		id      string
		wantMsg string
	}{
		{"", "6 to 30 characters"},
		{"abc", "6 to 30 characters"},
		{strings.Repeat("a", 31), "6 to 30 characters"},
		{"My-Project", "invalid characters"},
		{"my_project", "invalid characters"},
		{"my project", "invalid characters"},
		{"1project", "must start with a lowercase letter"},
		{"-project", "must start with a lowercase letter"},
		{"project-", "must not end with a hyphen"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateProjectID(tt.id)
			if err == nil {
				t.Fatalf("expected %q to be invalid, got nil", tt.id)
			}
			if got := err.Error(); !strings.Contains(got, tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, got)
			}
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Proj One", false},
		{"Acme's App!", false},
		{"Café Demo", false},
		{"abc", true},
		{strings.Repeat("x", 31), true},
		{"bad/name", true},
		{"semi;colon", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisplayName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDisplayName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}
