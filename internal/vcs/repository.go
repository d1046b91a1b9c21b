package vcs

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
)

// ErrNoTags is returned by LatestTag when the repository has no tags.
var ErrNoTags = errors.New("repository has no tags")

// ChangeKind classifies a changed path.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Removed  ChangeKind = "removed"
)

// Change is one path that differs between two commits.
type Change struct {
	Path string
	Kind ChangeKind
}

// Commit is the part of a commit shown to users.
type Commit struct {
	Hash    string
	Author  string
	Email   string
	When    time.Time
	Message string
}

// Subject returns the first line of the message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return subject
}

// Repository is an opened git repository.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing dir.
func Open(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.VCSError("failed to open repository").
			WithCause(err).
			WithContext(ferrors.ContextPath, dir).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ferrors.VCSError("repository has no worktree").WithCause(err).Build()
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root.
func (r *Repository) Root() string {
	return r.root
}

// LatestTag returns the tag pointing at the most recent commit.
func (r *Repository) LatestTag() (string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return "", ferrors.VCSError("failed to list tags").WithCause(err).Build()
	}
	var (
		latest string
		when   time.Time
	)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		c, err := r.tagCommit(ref)
		if err != nil {
			slog.Debug("Skipping tag", logfields.Revision(ref.Name().Short()), logfields.Error(err))
			return nil
		}
		t := c.Committer.When
		if latest == "" || t.After(when) || (t.Equal(when) && ref.Name().Short() > latest) {
			latest, when = ref.Name().Short(), t
		}
		return nil
	})
	if err != nil {
		return "", ferrors.VCSError("failed to list tags").WithCause(err).Build()
	}
	if latest == "" {
		return "", ferrors.VCSError("no baseline tag").WithCause(ErrNoTags).Build()
	}
	return latest, nil
}

func (r *Repository) tagCommit(ref *plumbing.Reference) (*object.Commit, error) {
	if tag, err := r.repo.TagObject(ref.Hash()); err == nil {
		return tag.Commit()
	}
	return r.repo.CommitObject(ref.Hash())
}

func (r *Repository) resolve(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, ferrors.VCSError(fmt.Sprintf("unknown revision %q", rev)).
			WithCause(err).
			WithContext("revision", rev).
			Build()
	}
	c, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, ferrors.VCSError("failed to read commit").WithCause(err).Build()
	}
	return c, nil
}

// ChangedFiles lists the paths that differ between since and HEAD, sorted
// by path.
func (r *Repository) ChangedFiles(since string) ([]Change, error) {
	base, err := r.resolve(since)
	if err != nil {
		return nil, err
	}
	head, err := r.resolve("HEAD")
	if err != nil {
		return nil, err
	}
	from, err := base.Tree()
	if err != nil {
		return nil, ferrors.VCSError("failed to read tree").WithCause(err).Build()
	}
	to, err := head.Tree()
	if err != nil {
		return nil, ferrors.VCSError("failed to read tree").WithCause(err).Build()
	}
	changes, err := object.DiffTree(from, to)
	if err != nil {
		return nil, ferrors.VCSError("failed to diff trees").WithCause(err).Build()
	}

	out := make([]Change, 0, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, ferrors.VCSError("failed to classify change").WithCause(err).Build()
		}
		switch action {
		case merkletrie.Insert:
			out = append(out, Change{Path: ch.To.Name, Kind: Added})
		case merkletrie.Delete:
			out = append(out, Change{Path: ch.From.Name, Kind: Removed})
		default:
			out = append(out, Change{Path: ch.To.Name, Kind: Modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// LastCommit returns the most recent commit touching path, relative to the
// worktree root. An empty path returns HEAD.
func (r *Repository) LastCommit(path string) (*Commit, error) {
	head, err := r.resolve("HEAD")
	if err != nil {
		return nil, err
	}
	opts := &git.LogOptions{From: head.Hash}
	if path != "" {
		opts.FileName = &path
	}
	iter, err := r.repo.Log(opts)
	if err != nil {
		return nil, ferrors.VCSError("failed to read log").WithCause(err).Build()
	}
	defer iter.Close()
	c, err := iter.Next()
	if err != nil {
		return nil, ferrors.VCSError(fmt.Sprintf("no commit touches %s", path)).
			WithCause(err).
			WithContext(ferrors.ContextPath, path).
			Build()
	}
	commit := toCommit(c)
	return &commit, nil
}

// Log returns the commits reachable from HEAD but not from since, newest
// first.
func (r *Repository) Log(since string) ([]Commit, error) {
	base, err := r.resolve(since)
	if err != nil {
		return nil, err
	}
	head, err := r.resolve("HEAD")
	if err != nil {
		return nil, err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, ferrors.VCSError("failed to read log").WithCause(err).Build()
	}
	defer iter.Close()

	var out []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash == base.Hash {
			return storer.ErrStop
		}
		inBase, err := c.IsAncestor(base)
		if err != nil {
			return err
		}
		if !inBase {
			out = append(out, toCommit(c))
		}
		return nil
	})
	if err != nil {
		return nil, ferrors.VCSError("failed to walk log").WithCause(err).Build()
	}
	return out, nil
}

// FormatLog renders commits the way git log does by default.
func FormatLog(commits []Commit) string {
	var b strings.Builder
	for _, c := range commits {
		fmt.Fprintf(&b, "commit %s\nAuthor: %s <%s>\nDate:   %s\n\n", c.Hash, c.Author, c.Email,
			c.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
		for _, l := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
			b.WriteString("    " + l + "\n")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func toCommit(c *object.Commit) Commit {
	return Commit{
		Hash:    c.Hash.String(),
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		When:    c.Author.When,
		Message: c.Message,
	}
}
