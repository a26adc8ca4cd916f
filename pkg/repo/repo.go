// Package repo answers one question: which files are staged for commit.
//
// Staged means recorded in the index with content differing from the HEAD
// commit's tree. The comparison is purely structural (tree vs. index); the
// working directory and untracked files never enter into it. In a fresh
// repository with no commits the index is diffed against the empty tree,
// so every index entry counts as staged.
package repo

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/stagerun/pkg/errors"
)

// Repository wraps an opened git repository rooted at a working tree
type Repository struct {
	git    *git.Repository
	root   string
	logger zerolog.Logger
}

// Open opens the git repository containing dir, walking up to find the
// .git directory. It fails with a REPO_OPEN error when dir is not inside
// a git working tree.
func Open(dir string, logger zerolog.Logger) (*Repository, error) {
	log := logger.With().Str("component", "repo").Logger()

	gitRepo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRepoOpen, "not a git repository: %s", dir)
	}

	worktree, err := gitRepo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepoOpen, "repository has no working tree")
	}
	root := worktree.Filesystem.Root()

	log.Debug().Str("root", root).Msg("repository opened")

	return &Repository{git: gitRepo, root: root, logger: log}, nil
}

// Root returns the absolute path of the repository's working tree root
func (r *Repository) Root() string {
	return r.root
}

// headEntry is one path recorded in the HEAD commit's tree
type headEntry struct {
	name string
	hash plumbing.Hash
	mode filemode.FileMode
}

// StagedFiles returns the absolute paths of all files staged for commit,
// deduplicated with first occurrence winning. Order is deterministic:
// index entries first (additions and modifications, in index order), then
// paths present only in HEAD (deletions, in tree order). Renames staged in
// the index surface as a deletion plus an addition, so both sides of the
// rename are included.
func (r *Repository) StagedFiles() ([]string, error) {
	head, headOrder, err := r.headTreeEntries()
	if err != nil {
		return nil, err
	}

	idx, err := r.git.Storer.Index()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRepoQuery, "failed to read index")
	}

	inIndex := make(map[string]bool, len(idx.Entries))
	var staged []string

	for _, entry := range idx.Entries {
		inIndex[entry.Name] = true
		if prev, ok := head[entry.Name]; ok && prev.hash == entry.Hash && prev.mode == entry.Mode {
			continue
		}
		staged = append(staged, r.absPath(entry.Name))
	}

	for _, entry := range headOrder {
		if !inIndex[entry.name] {
			staged = append(staged, r.absPath(entry.name))
		}
	}

	staged = dedupPaths(staged)

	r.logger.Debug().Int("count", len(staged)).Strs("files", staged).Msg("staged files located")
	return staged, nil
}

// headTreeEntries loads the HEAD commit's tree as a name-indexed map plus
// the tree's own iteration order. An unborn HEAD (no commits yet) yields
// an empty tree.
func (r *Repository) headTreeEntries() (map[string]headEntry, []headEntry, error) {
	ref, err := r.git.Head()
	if err == plumbing.ErrReferenceNotFound {
		r.logger.Debug().Msg("no commit yet, diffing index against the empty tree")
		return map[string]headEntry{}, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrRepoQuery, "failed to resolve HEAD")
	}

	commit, err := r.git.CommitObject(ref.Hash())
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrRepoQuery, "failed to load HEAD commit")
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrRepoQuery, "failed to load HEAD tree")
	}

	entries := make(map[string]headEntry)
	var order []headEntry
	err = tree.Files().ForEach(func(f *object.File) error {
		entry := headEntry{name: f.Name, hash: f.Hash, mode: f.Mode}
		entries[f.Name] = entry
		order = append(order, entry)
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrRepoQuery, "failed to walk HEAD tree")
	}

	return entries, order, nil
}

func (r *Repository) absPath(name string) string {
	return filepath.Join(r.root, filepath.FromSlash(name))
}

// dedupPaths removes duplicate paths, keeping the first occurrence.
// Deduping an already-deduped slice is a no-op.
func dedupPaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	deduped := paths[:0]
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		deduped = append(deduped, path)
	}
	return deduped
}
