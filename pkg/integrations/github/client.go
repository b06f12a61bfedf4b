package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/integrations"
	"github.com/matzehuels/stackquery/pkg/query"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// Resource is the query key resource for repository details.
const Resource = "github.repo"

// StaleTime is how long repository details are served without refetching.
const StaleTime = 3 * time.Second

// Client fetches repository details from the GitHub API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client. Pass an empty token for
// unauthenticated requests (60 requests/hour) and an empty baseURL for
// [DefaultBaseURL].
func NewClient(token, baseURL string, opts ...integrations.Option) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// RepoDetails is the subset of a repository that the CLI displays.
type RepoDetails struct {
	Name        string `json:"name" msgpack:"name"`
	FullName    string `json:"full_name" msgpack:"full_name"`
	Description string `json:"description" msgpack:"description"`
	Subscribers int    `json:"subscribers_count" msgpack:"subscribers_count"`
	Stars       int    `json:"stargazers_count" msgpack:"stargazers_count"`
	Forks       int    `json:"forks_count" msgpack:"forks_count"`
	HTMLURL     string `json:"html_url" msgpack:"html_url"`
}

// Repo fetches the details of owner/repo.
func (c *Client) Repo(ctx context.Context, owner, repo string) (*RepoDetails, error) {
	var data RepoDetails
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "github repo %s/%s not found", owner, repo)
		}
		return nil, err
	}
	return &data, nil
}

// RepoKey returns the query key for owner/repo.
func RepoKey(owner, repo string) query.Key {
	return query.NewKey(Resource, owner+"/"+repo)
}

// RepoQuery returns the query for owner/repo. Results are fresh for
// [StaleTime] and can be persisted.
func (c *Client) RepoQuery(owner, repo string) query.Definition {
	return query.Definition{
		Key: RepoKey(owner, repo),
		Fetch: func(ctx context.Context) (any, error) {
			return c.Repo(ctx, owner, repo)
		},
		Options: query.Options{
			StaleTime: StaleTime,
			Decode:    query.DecodeMsgpack[*RepoDetails](),
		},
	}
}

// ParseRepo parses an "owner/repo" slug.
func ParseRepo(slug string) (owner, repo string, err error) {
	return errors.ParseRepoSlug(slug)
}
