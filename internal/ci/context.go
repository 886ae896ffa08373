// Package ci reads the CI execution context and writes the signals the rest
// of the workflow consumes: GitHub Actions output variables and the job
// step summary.
package ci

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Context is the commit/run identity supplied by the CI environment.
// Everything is optional; explicit flags win over environment values.
type Context struct {
	HeadSHA    string
	Branch     string
	Actor      string
	Repository string
	ServerURL  string
	Status     string
}

// FromEnv reads the GitHub Actions environment. Outside CI every field is
// empty and callers fall back to git metadata.
func FromEnv() Context {
	return Context{
		HeadSHA:    os.Getenv("GITHUB_SHA"),
		Branch:     os.Getenv("GITHUB_REF_NAME"),
		Actor:      os.Getenv("GITHUB_ACTOR"),
		Repository: os.Getenv("GITHUB_REPOSITORY"),
		ServerURL:  os.Getenv("GITHUB_SERVER_URL"),
		Status:     os.Getenv("MLTRAIL_STATUS"),
	}
}

// CommitLinkBase returns the web URL prefix for commits in this repo, or
// "" outside a known repo. Appending "/<sha>" yields the commit page.
func (c Context) CommitLinkBase() string {
	if c.Repository == "" {
		return ""
	}
	server := c.ServerURL
	if server == "" {
		server = "https://github.com"
	}
	return fmt.Sprintf("%s/%s/commit", server, strings.Trim(c.Repository, "/"))
}

// CommitURL returns the web URL for a commit, or "" outside a known repo.
func (c Context) CommitURL(sha string) string {
	base := c.CommitLinkBase()
	if base == "" || sha == "" {
		return ""
	}
	return base + "/" + sha
}

// WriteOutputs appends key=value pairs to $GITHUB_OUTPUT so later workflow
// steps can consume them. A no-op when the variable is unset (local runs).
// Keys are emitted in sorted order so output files are deterministic.
func WriteOutputs(values map[string]string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening GITHUB_OUTPUT: %w", err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(f, "%s=%s\n", k, values[k]); err != nil {
			return fmt.Errorf("writing GITHUB_OUTPUT: %w", err)
		}
	}
	return nil
}

// AppendStepSummary appends markdown to the job's step summary surface.
// A no-op outside CI.
func AppendStepSummary(md string) error {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening GITHUB_STEP_SUMMARY: %w", err)
	}
	defer func() { _ = f.Close() }()
	if !strings.HasSuffix(md, "\n") {
		md += "\n"
	}
	if _, err := f.WriteString(md); err != nil {
		return fmt.Errorf("writing GITHUB_STEP_SUMMARY: %w", err)
	}
	return nil
}
