// Package pipeline sequences the per-commit stages: classify, extract
// metrics, append to the ledger, render the summary, publish to the
// registry. Stage failures are accumulated, not cascaded; the failure
// domains stay decoupled so one degraded stage never hides the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tetralabs/mltrail/internal/ci"
	"github.com/tetralabs/mltrail/internal/classify"
	"github.com/tetralabs/mltrail/internal/config"
	"github.com/tetralabs/mltrail/internal/gitio"
	"github.com/tetralabs/mltrail/internal/ledger"
	"github.com/tetralabs/mltrail/internal/metrics"
	"github.com/tetralabs/mltrail/internal/registry"
	"github.com/tetralabs/mltrail/internal/render"
)

// Deps are the collaborators injected into a run.
type Deps struct {
	Config    config.Config
	Repo      *gitio.Repo
	Store     ledger.Store
	Extractor metrics.Extractor
	Publisher registry.Publisher
	CI        ci.Context
	Log       *slog.Logger

	// Per-run inputs.
	BaseRev     string
	HeadRev     string
	Status      ledger.Status
	ArtifactRef string
}

// Outcome is what a run produced, for the CLI layer to report.
type Outcome struct {
	Classification classify.Result
	Record         ledger.Record
	AppendResult   ledger.AppendResult
	Summary        render.Summary
	SummaryPath    string
	ChartPath      string
	// Degraded is set when the ledger append or render could not complete;
	// the run still counts as a CI success.
	Degraded bool
}

type Pipeline struct {
	deps  Deps
	state *StateStore
}

func New(deps Deps, state *StateStore) *Pipeline {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Pipeline{deps: deps, state: state}
}

// Run executes all stages in order. It returns an error only when no
// CommitRecord could be produced at all; degraded stages are reported
// through the Outcome and the persisted stage results.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{}
	var results []StageResult

	if p.state != nil {
		// Stage files from a previous commit would misreport this run.
		if err := p.state.Reset(); err != nil {
			p.deps.Log.Warn("resetting run state", "error", err)
		}
	}

	record := func(res StageResult) {
		results = append(results, res)
		if p.state != nil {
			if err := p.state.WriteStageResult(res); err != nil {
				p.deps.Log.Warn("writing stage state", "stage", res.Stage, "error", err)
			}
		}
	}

	record(p.runClassify(ctx, out))
	record(p.runMetrics(ctx, out))

	if err := p.buildRecord(out); err != nil {
		return nil, err
	}

	record(p.runAppend(ctx, out))
	record(p.runRender(ctx, out))
	record(p.runPublish(ctx, out))

	last := LastRun{Status: "pass"}
	for _, res := range results {
		last.Stages = append(last.Stages, res.Stage)
		if res.Status == StatusFail {
			last.Failed = append(last.Failed, res.Stage)
			last.Status = "fail"
		}
	}
	if p.state != nil {
		if err := p.state.WriteLastRun(last); err != nil {
			p.deps.Log.Warn("writing last-run state", "error", err)
		}
	}
	return out, nil
}

// runClassify computes the cause. An unreadable history degrades to None:
// a record is always worth more than a perfect classification.
func (p *Pipeline) runClassify(ctx context.Context, out *Outcome) StageResult {
	rules := classify.NewRuleSet(p.deps.Config.Classifier.DataPrefix, p.deps.Config.Classifier.ScriptPattern)

	changed, err := p.deps.Repo.ChangedPaths(p.deps.BaseRev, p.deps.HeadRev)
	if err != nil {
		p.deps.Log.Warn("history not classifiable, defaulting to None", "error", err)
		out.Classification = classify.Result{Cause: classify.CauseNone}
	} else {
		out.Classification = classify.Classify(changed, rules)
	}

	if err := ci.WriteOutputs(map[string]string{
		"cause":    string(out.Classification.Cause),
		"relevant": strconv.FormatBool(out.Classification.Cause.Relevant()),
	}); err != nil {
		p.deps.Log.Warn("writing CI outputs", "error", err)
	}

	p.deps.Log.Info("classified commit",
		"cause", out.Classification.Cause,
		"changed_paths", len(changed))
	return StageResult{Stage: StageClassify, Status: StatusPass, Note: string(out.Classification.Cause)}
}

func (p *Pipeline) runMetrics(ctx context.Context, out *Outcome) StageResult {
	m, err := p.deps.Extractor.Extract(ctx)
	if err != nil {
		// Metrics are a collaborator signal; losing them degrades the row
		// to all-null metric cells rather than aborting the record.
		p.deps.Log.Warn("metric extraction failed, recording without metrics", "error", err)
		out.Record.Metrics = map[string]*float64{}
		return StageResult{Stage: StageMetrics, Status: StatusFail, Note: err.Error()}
	}
	out.Record.Metrics = m
	return StageResult{Stage: StageMetrics, Status: StatusPass, Note: fmt.Sprintf("%d metrics", len(m))}
}

// buildRecord assembles the CommitRecord from git metadata, falling back to
// the CI-provided SHA when the repository cannot answer. No identity at all
// is the one fatal case: there is nothing to append.
func (p *Pipeline) buildRecord(out *Outcome) error {
	out.Record.Cause = out.Classification.Cause
	out.Record.DevOps = p.deps.Status
	if out.Record.DevOps == "" {
		out.Record.DevOps = ledger.StatusSkipped
	}

	head, err := p.deps.Repo.Resolve(p.deps.HeadRev)
	if err == nil {
		out.Record.CommitSHA = head.SHA
		out.Record.Timestamp = head.When.UTC()
		return nil
	}
	if p.deps.CI.HeadSHA != "" {
		p.deps.Log.Warn("using CI-provided commit identity", "error", err)
		out.Record.CommitSHA = p.deps.CI.HeadSHA
		out.Record.Timestamp = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("cannot determine commit identity: %w", err)
}

func (p *Pipeline) runAppend(ctx context.Context, out *Outcome) StageResult {
	res, err := p.deps.Store.Append(ctx, out.Record)
	if err != nil {
		out.Degraded = true
		p.deps.Log.Warn("ledger append failed, continuing degraded",
			"commit", out.Record.ShortSHA(), "error", err)
		return StageResult{Stage: StageAppend, Status: StatusFail, Note: err.Error()}
	}
	out.AppendResult = res
	if res == ledger.SkippedDuplicate {
		p.deps.Log.Info("commit already recorded, append skipped", "commit", out.Record.ShortSHA())
		return StageResult{Stage: StageAppend, Status: StatusPass, Note: "duplicate commit, skipped"}
	}
	return StageResult{Stage: StageAppend, Status: StatusPass}
}

// runRender reads the ledger back and derives the summary. A corrupt ledger
// fails this stage only, with an explicit diagnostic; it is never rewritten
// to "fix" it.
func (p *Pipeline) runRender(ctx context.Context, out *Outcome) StageResult {
	snapshot, err := p.deps.Store.ReadAll(ctx)
	if err != nil {
		out.Degraded = true
		note := err.Error()
		if errors.Is(err, ledger.ErrCorrupt) {
			note = "ledger unreadable, refusing to render: " + note
		}
		return StageResult{Stage: StageRender, Status: StatusFail, Note: note}
	}

	chartName := p.deps.Config.Summary.HighlightMetric + ".svg"
	out.Summary = render.Render(snapshot, render.Options{
		HighlightMetric: p.deps.Config.Summary.HighlightMetric,
		MaxTableRows:    p.deps.Config.Summary.MaxTableRows,
		ChartRef:        chartName,
		CommitLinkBase:  p.deps.CI.CommitLinkBase(),
	})

	outDir := p.deps.Config.Summary.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return StageResult{Stage: StageRender, Status: StatusFail, Note: err.Error()}
	}
	out.SummaryPath = filepath.Join(outDir, "summary.md")
	out.ChartPath = filepath.Join(outDir, chartName)
	if err := os.WriteFile(out.SummaryPath, []byte(out.Summary.Markdown), 0o600); err != nil {
		return StageResult{Stage: StageRender, Status: StatusFail, Note: err.Error()}
	}
	if err := os.WriteFile(out.ChartPath, out.Summary.ChartSVG, 0o600); err != nil {
		return StageResult{Stage: StageRender, Status: StatusFail, Note: err.Error()}
	}

	if err := ci.AppendStepSummary(out.Summary.Markdown); err != nil {
		p.deps.Log.Warn("appending step summary", "error", err)
	}
	return StageResult{Stage: StageRender, Status: StatusPass}
}

// runPublish is the best-effort trailing step. Missing configuration or a
// missing artifact skips; a publish error is logged and noted, never fatal.
func (p *Pipeline) runPublish(ctx context.Context, out *Outcome) StageResult {
	if !p.deps.Config.PublishEnabled() {
		return StageResult{Stage: StagePublish, Status: StatusSkip, Note: "registry not configured"}
	}
	if p.deps.ArtifactRef == "" {
		return StageResult{Stage: StagePublish, Status: StatusSkip, Note: "no artifact produced"}
	}

	mv := registry.ModelVersion{
		Name:        p.deps.Config.Registry.ModelName,
		CommitSHA:   out.Record.CommitSHA,
		ArtifactRef: p.deps.ArtifactRef,
		Stage:       p.deps.Config.Registry.Stage,
	}
	if err := p.deps.Publisher.Publish(ctx, mv); err != nil {
		p.deps.Log.Warn("registry publish failed", "model", mv.Name, "error", err)
		return StageResult{Stage: StagePublish, Status: StatusFail, Note: err.Error()}
	}
	p.deps.Log.Info("published model version", "model", mv.Name, "commit", out.Record.ShortSHA())
	return StageResult{Stage: StagePublish, Status: StatusPass}
}
