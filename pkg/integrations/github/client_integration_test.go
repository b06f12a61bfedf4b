//go:build integration

package github

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/stackquery/pkg/errors"
)

func TestRepo_Integration(t *testing.T) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("GITHUB_TOKEN not set, skipping integration test")
	}

	client := NewClient(token, "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name     string
		owner    string
		repo     string
		wantCode errors.Code
	}{
		{"tanstack/query", "tanstack", "query", ""},
		{"nonexistent", "nonexistent-owner-12345", "nonexistent-repo", errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, err := client.Repo(ctx, tt.owner, tt.repo)
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Fatalf("Repo(%q, %q) error = %v, want code %q", tt.owner, tt.repo, err, tt.wantCode)
			}
			if tt.wantCode == "" {
				if details.Name == "" {
					t.Error("Name should not be empty")
				}
				if details.Stars < 0 {
					t.Error("Stars should not be negative")
				}
			}
		})
	}
}
