package cli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/stackquery/pkg/integrations/fakestore"
	"github.com/matzehuels/stackquery/pkg/integrations/github"
	"github.com/matzehuels/stackquery/pkg/query"
)

var testRepo = &github.RepoDetails{
	Name:        "react-query",
	Description: "Hooks for fetching",
	Subscribers: 2,
	Stars:       5,
	Forks:       1,
}

func TestViewRepo(t *testing.T) {
	netErr := &query.FetchError{Err: errors.New("Network Error")}

	tests := []struct {
		name    string
		snap    query.Snapshot
		want    []string
		notWant []string
	}{
		{
			name: "loading",
			snap: query.Snapshot{Status: query.StatusLoading, IsLoading: true, IsFetching: true},
			want: []string{"Loading..."},
		},
		{
			name: "error without data",
			snap: query.Snapshot{Status: query.StatusError, Err: netErr},
			want: []string{"An error has occurred: Network Error"},
		},
		{
			name:    "success",
			snap:    query.Snapshot{Status: query.StatusSuccess, Data: testRepo, HasData: true},
			want:    []string{"react-query", "Hooks for fetching", "👀 2", "✨ 5", "🍴 1"},
			notWant: []string{"Updating..."},
		},
		{
			name: "background fetch",
			snap: query.Snapshot{Status: query.StatusSuccess, Data: testRepo, HasData: true, IsFetching: true},
			want: []string{"react-query", "Updating..."},
		},
		{
			name:    "failed revalidation keeps data",
			snap:    query.Snapshot{Status: query.StatusError, Data: testRepo, HasData: true, Err: netErr},
			want:    []string{"react-query", "An error has occurred: Network Error"},
			notWant: []string{"Loading..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := viewRepo(tt.snap)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("viewRepo() missing %q:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("viewRepo() should not contain %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestViewProducts(t *testing.T) {
	snap := query.Snapshot{
		Status:  query.StatusSuccess,
		HasData: true,
		Data: []fakestore.Product{
			{Title: "Gold Ring", Price: 695, Image: "https://example.com/ring.jpg"},
			{Title: "Silver Chain", Price: 10.5, Image: "https://example.com/chain.jpg"},
		},
	}
	got := viewProducts(snap)
	for _, w := range []string{"Gold Ring", "$695.00", "Silver Chain", "$10.50", "https://example.com/chain.jpg"} {
		if !strings.Contains(got, w) {
			t.Errorf("viewProducts() missing %q:\n%s", w, got)
		}
	}

	empty := viewProducts(query.Snapshot{Status: query.StatusSuccess, HasData: true, Data: []fakestore.Product{}})
	if !strings.Contains(empty, "No products") {
		t.Errorf("empty listing = %q", empty)
	}
}

func TestViewStatus(t *testing.T) {
	now := time.Now()
	snap := query.Snapshot{
		Key:        query.NewKey("github.repo", "a/b"),
		Status:     query.StatusSuccess,
		UpdatedAt:  now.Add(-time.Second),
		FetchCount: 2,
	}
	if got := viewStatus(snap, 3*time.Second, now); !strings.Contains(got, "fresh") || !strings.Contains(got, "fetched 2×") {
		t.Errorf("viewStatus() = %q", got)
	}
	if got := viewStatus(snap, 0, now); !strings.Contains(got, "stale") {
		t.Errorf("viewStatus() with zero stale time = %q", got)
	}
}
