// Package audit assembles the bounded change document for a release review:
// a change summary, the commit log since the baseline and the chunked diff
// of the rendered project report.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"git.home.luguber.info/inful/normalize/internal/config"
	"git.home.luguber.info/inful/normalize/internal/diffchunk"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/review"
	"git.home.luguber.info/inful/normalize/internal/vcs"
)

// Differ produces a unified diff between two texts.
type Differ interface {
	Diff(oldText, newText, oldName, newName string) (string, error)
}

// LineDiffer is a Differ backed by difflib.
type LineDiffer struct {
	Context int
}

// Diff implements Differ.
func (d LineDiffer) Diff(oldText, newText, oldName, newName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: oldName,
		ToFile:   newName,
		Context:  d.Context,
	})
}

// History is the version-control view the assembler needs.
type History interface {
	ChangedFiles(since string) ([]vcs.Change, error)
	LastCommit(path string) (*vcs.Commit, error)
	Log(since string) ([]vcs.Commit, error)
}

// Input names the baseline and carries both rendered reports.
type Input struct {
	Baseline  string
	OldReport string
	NewReport string
}

// Assembler builds audit documents.
type Assembler struct {
	differ   Differ
	maxBytes int
	reviewer review.Reviewer
	review   config.ReviewConfig
}

// New creates an Assembler. reviewer may be nil when no review is requested.
func New(cfg *config.Config, reviewer review.Reviewer) *Assembler {
	return &Assembler{
		differ:   LineDiffer{Context: cfg.Audit.ContextLines},
		maxBytes: cfg.Audit.MaxBytes,
		reviewer: reviewer,
		review:   cfg.Review,
	}
}

// WithDiffer replaces the diff producer.
func (a *Assembler) WithDiffer(d Differ) *Assembler {
	a.differ = d
	return a
}

// Assemble returns the summary line, the raw commit log since the baseline
// and the chunked report diff, compressed when larger than the bound.
func (a *Assembler) Assemble(h History, in Input) (string, error) {
	changes, err := h.ChangedFiles(in.Baseline)
	if err != nil {
		return "", err
	}
	latest, err := h.LastCommit("")
	if err != nil {
		return "", err
	}
	commits, err := h.Log(in.Baseline)
	if err != nil {
		return "", err
	}

	raw, err := a.differ.Diff(in.OldReport, in.NewReport, in.Baseline, "HEAD")
	if err != nil {
		return "", ferrors.CollaboratorError("failed to diff reports").WithCause(err).Build()
	}
	chunked, err := diffchunk.Chunk(raw)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(Summary(changes, latest.Subject()))
	b.WriteString("\n\n")
	b.WriteString(vcs.FormatLog(commits))
	b.WriteString(chunked)

	doc := b.String()
	if a.maxBytes > 0 && len(doc) > a.maxBytes {
		compressed := diffchunk.Compress(doc, a.maxBytes)
		slog.Info("Compressed audit document",
			logfields.Bytes(len(doc)),
			slog.Int("compressed_bytes", len(compressed)))
		doc = compressed
	}
	return doc, nil
}

// Review sends doc, prefixed by the configured instructions, and returns the
// response verbatim.
func (a *Assembler) Review(ctx context.Context, doc string) (string, error) {
	if a.reviewer == nil {
		return "", ferrors.ConfigError("no reviewer configured").Build()
	}
	payload := doc
	if a.review.Instructions != "" {
		payload = a.review.Instructions + "\n\n" + doc
	}
	slog.Info("Requesting review",
		logfields.Provider(string(a.review.Provider)),
		logfields.Model(a.review.Model),
		logfields.Bytes(len(payload)))
	return a.reviewer.Review(ctx, review.Request{
		Payload:     payload,
		Model:       a.review.Model,
		Temperature: a.review.Temperature,
	})
}

// Run assembles the document and, when withReview is set, appends the
// reviewer's response.
func (a *Assembler) Run(ctx context.Context, h History, in Input, withReview bool) (string, error) {
	doc, err := a.Assemble(h, in)
	if err != nil {
		return "", err
	}
	if !withReview {
		return doc, nil
	}
	resp, err := a.Review(ctx, doc)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}
	return doc + "\n" + resp, nil
}

// Summary renders the one-line change summary.
func Summary(changes []vcs.Change, latest string) string {
	byKind := map[vcs.ChangeKind][]string{}
	for _, c := range changes {
		byKind[c.Kind] = append(byKind[c.Kind], c.Path)
	}
	list := func(k vcs.ChangeKind) string {
		if len(byKind[k]) == 0 {
			return "none"
		}
		return strings.Join(byKind[k], ", ")
	}
	return fmt.Sprintf("Added: %s; Modified: %s; Removed: %s; Latest: %s",
		list(vcs.Added), list(vcs.Modified), list(vcs.Removed), latest)
}
