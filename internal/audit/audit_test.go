package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/normalize/internal/config"
	"git.home.luguber.info/inful/normalize/internal/review"
	"git.home.luguber.info/inful/normalize/internal/vcs"
)

type fakeHistory struct{}

func (fakeHistory) ChangedFiles(string) ([]vcs.Change, error) {
	return []vcs.Change{
		{Path: "README.md", Kind: vcs.Modified},
		{Path: "docs/new.md", Kind: vcs.Added},
	}, nil
}

func (fakeHistory) LastCommit(string) (*vcs.Commit, error) {
	return &vcs.Commit{Hash: "abc", Message: "rework docs\n\nbody"}, nil
}

func (fakeHistory) Log(string) ([]vcs.Commit, error) {
	return []vcs.Commit{{Hash: "abc", Author: "Dev", Email: "dev@example.com",
		When: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Message: "rework docs\n\nbody"}}, nil
}

type fakeReviewer struct {
	got review.Request
}

func (f *fakeReviewer) Review(_ context.Context, req review.Request) (string, error) {
	f.got = req
	return "No issues found.", nil
}

func reports() (string, string) {
	var lines []string
	for i := range 40 {
		lines = append(lines, "line "+string(rune('a'+i%26)))
		if i%5 == 4 {
			lines = append(lines, "")
		}
	}
	old := strings.Join(lines, "\n") + "\n"
	lines[20] = "changed line"
	return old, strings.Join(lines, "\n") + "\n"
}

func TestSummary(t *testing.T) {
	changes, _ := fakeHistory{}.ChangedFiles("v1")
	assert.Equal(t, "Added: docs/new.md; Modified: README.md; Removed: none; Latest: rework docs",
		Summary(changes, "rework docs"))
}

func TestAssemble(t *testing.T) {
	old, cur := reports()
	a := New(config.Default(), nil)

	doc, err := a.Assemble(fakeHistory{}, Input{Baseline: "v1", OldReport: old, NewReport: cur})
	require.NoError(t, err)

	parts := strings.SplitN(doc, "\n\n", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "Added: docs/new.md; Modified: README.md; Removed: none; Latest: rework docs", parts[0])
	assert.True(t, strings.HasPrefix(parts[1], "commit abc\nAuthor: Dev <dev@example.com>\n"))
	assert.Contains(t, doc, "--- v1\n+++ HEAD\n")
	assert.Contains(t, doc, "+changed line\n")
	assert.Contains(t, doc, " line a ...\n", "unchanged paragraphs collapse")
	assert.Less(t, len(doc), len(old)+len(cur))
}

func TestAssembleCompressesOversizedDocument(t *testing.T) {
	var old strings.Builder
	for i := range 200 {
		old.WriteString(strings.Repeat("x", 40) + string(rune('0'+i%10)) + "\n")
	}
	cfg := config.Default()
	cfg.Audit.MaxBytes = 2000
	a := New(cfg, nil)

	doc, err := a.Assemble(fakeHistory{}, Input{Baseline: "v1", OldReport: old.String(), NewReport: ""})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(doc), 2000)
	assert.Contains(t, doc, "-:(another 196 lines dropped here)")
}

func TestRunAppendsReview(t *testing.T) {
	old, cur := reports()
	rev := &fakeReviewer{}
	cfg := config.Default()
	cfg.Review.Model = "model-x"
	cfg.Review.Temperature = 0.3
	cfg.Review.Instructions = "Review this."
	a := New(cfg, rev)

	out, err := a.Run(context.Background(), fakeHistory{}, Input{Baseline: "v1", OldReport: old, NewReport: cur}, true)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\n\nNo issues found."))
	assert.True(t, strings.HasPrefix(rev.got.Payload, "Review this.\n\nAdded: "))
	assert.Equal(t, "model-x", rev.got.Model)
	assert.InDelta(t, 0.3, rev.got.Temperature, 1e-6)

	_, err = New(cfg, nil).Review(context.Background(), "doc")
	assert.Error(t, err)
}
