// Package github fetches repository details from the GitHub REST API.
//
// # Usage
//
//	client := github.NewClient(os.Getenv("GITHUB_TOKEN"), "")
//	def := client.RepoQuery("tannerlinsley", "react-query")
//	snap, err := def.Query(ctx, cache)
//
// [Client.RepoQuery] binds [Client.Repo] to the key
// {github.repo, owner/repo} with a three second stale time, so repeated
// queries inside that window are answered from the cache and later ones
// revalidate in the background.
//
// # Authentication
//
// A personal access token is optional. Without one the API allows 60
// requests per hour; exhausting the limit yields a RATE_LIMITED error.
package github
