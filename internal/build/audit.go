package build

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/normalize/internal/audit"
	"git.home.luguber.info/inful/normalize/internal/buildgraph"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/review"
	"git.home.luguber.info/inful/normalize/internal/vcs"
	"git.home.luguber.info/inful/normalize/internal/workspace"
)

// AuditRequest describes one release audit.
type AuditRequest struct {
	Dir      string
	Baseline string // empty selects the configured baseline, then the latest tag
	Review   bool
	// Workspace is where the baseline snapshot is materialized; the system
	// temp dir when empty.
	Workspace     string
	KeepWorkspace bool
}

// Audit rebuilds the report of the baseline release in a scratch workspace,
// rebuilds the current report and assembles the audit document from both.
func (s *Service) Audit(ctx context.Context, req AuditRequest) (string, error) {
	dir, err := filepath.Abs(req.Dir)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "invalid path").Build()
	}
	repo, err := vcs.Open(dir)
	if err != nil {
		return "", err
	}
	baseline, err := s.baseline(repo, req.Baseline)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(repo.Root(), dir)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "project is outside the repository").Build()
	}

	ws := workspace.NewManager(req.Workspace)
	if req.KeepWorkspace {
		ws.Keep()
	}
	snapRoot, err := ws.Create()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create workspace").Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Workspace cleanup failed", logfields.Error(err))
		}
	}()

	slog.Info("Materializing baseline", logfields.Revision(baseline), logfields.Path(snapRoot))
	if err := repo.Snapshot(baseline, snapRoot); err != nil {
		return "", err
	}

	oldReport, err := s.report(ctx, filepath.Join(snapRoot, rel))
	if err != nil {
		return "", err
	}
	newReport, err := s.report(ctx, dir)
	if err != nil {
		return "", err
	}

	var reviewer review.Reviewer
	if req.Review {
		reviewer, err = review.New(ctx, s.cfg.Review, s.recorder)
		if err != nil {
			return "", err
		}
	}
	in := audit.Input{Baseline: baseline, OldReport: oldReport, NewReport: newReport}
	return audit.New(s.cfg, reviewer).Run(ctx, repo, in, req.Review)
}

func (s *Service) baseline(repo *vcs.Repository, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if s.cfg.Audit.Baseline != "" {
		return s.cfg.Audit.Baseline, nil
	}
	tag, err := repo.LatestTag()
	if errors.Is(err, vcs.ErrNoTags) {
		return "", ferrors.ValidationError("no baseline given and the repository has no tags").
			WithCause(ErrNoBaseline).
			Build()
	}
	return tag, err
}

// report makes the doc goal of dir and returns the root report.
func (s *Service) report(ctx context.Context, dir string) (string, error) {
	res, err := s.Run(ctx, Request{Dir: dir, Goal: buildgraph.KindDoc, Trigger: TriggerAudit})
	if err != nil {
		return "", err
	}
	return ReadReport(res.Project)
}
