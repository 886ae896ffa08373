// Package gitio wraps the go-git access mltrail needs: resolving commit
// references, reading commit metadata, and computing the changed-path set
// between two revisions.
package gitio

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit is the metadata mltrail records about a single commit.
type Commit struct {
	SHA     string
	Message string
	Author  string
	Branch  string
	When    time.Time
}

// Short returns the 7-character display form of the SHA.
func (c Commit) Short() string {
	if len(c.SHA) < 7 {
		return c.SHA
	}
	return c.SHA[:7]
}

// Repo is an opened git repository.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository containing path, walking up to the .git root.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", path, err)
	}
	return &Repo{repo: repo}, nil
}

// Head returns metadata for the current HEAD commit, including the branch
// name when HEAD is not detached.
func (r *Repo) Head() (Commit, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Commit{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	c, err := r.commitMeta(ref.Hash())
	if err != nil {
		return Commit{}, err
	}
	if ref.Name().IsBranch() {
		c.Branch = ref.Name().Short()
	}
	return c, nil
}

// Resolve returns metadata for an arbitrary revision (SHA, branch, tag).
// An empty rev means HEAD.
func (r *Repo) Resolve(rev string) (Commit, error) {
	if rev == "" {
		return r.Head()
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return Commit{}, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	return r.commitMeta(*hash)
}

func (r *Repo) commitMeta(h plumbing.Hash) (Commit, error) {
	commit, err := r.repo.CommitObject(h)
	if err != nil {
		return Commit{}, fmt.Errorf("reading commit %s: %w", h, err)
	}
	return Commit{
		SHA:     commit.Hash.String(),
		Message: firstLine(commit.Message),
		Author:  commit.Author.Name,
		When:    commit.Author.When,
	}, nil
}

// ChangedPaths computes the set of paths that differ between base and head.
// An empty base means the first parent of head; a head-only history (root
// commit, shallow clone with no parent) is an error so callers can degrade
// to a None classification rather than guessing.
func (r *Repo) ChangedPaths(baseRev, headRev string) ([]string, error) {
	head, err := r.Resolve(headRev)
	if err != nil {
		return nil, err
	}
	headCommit, err := r.repo.CommitObject(plumbing.NewHash(head.SHA))
	if err != nil {
		return nil, fmt.Errorf("reading head commit: %w", err)
	}

	var baseCommit *object.Commit
	if baseRev == "" {
		baseCommit, err = headCommit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("head %s has no parent: %w", head.Short(), err)
		}
	} else {
		base, err := r.Resolve(baseRev)
		if err != nil {
			return nil, err
		}
		baseCommit, err = r.repo.CommitObject(plumbing.NewHash(base.SHA))
		if err != nil {
			return nil, fmt.Errorf("reading base commit: %w", err)
		}
	}

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading base tree: %w", err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading head tree: %w", err)
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("diffing trees: %w", err)
	}

	seen := map[string]bool{}
	for _, ch := range changes {
		for _, name := range []string{ch.From.Name, ch.To.Name} {
			if name != "" {
				seen[name] = true
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
