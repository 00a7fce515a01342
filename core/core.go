// Package core runs chart jobs: resolve the window, fetch, aggregate, publish.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/liftwatch/core/agg"
	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
)

// Steps recorded for failures that happen before the publisher is called.
const (
	DiscoverStep  = "discover-periods"
	FetchStep     = "fetch"
	AggregateStep = "aggregate"
	TitleStep     = "render-title"
	ChartIDStep   = "resolve-chart-id"
)

// RunOptions controls a single update run.
type RunOptions struct {
	DryRun bool
}

// Runner processes chart jobs sequentially. Publisher may be nil for dry runs and
// History may be nil when no run history is kept.
type Runner struct {
	Source    contract.RecordSource
	Publisher contract.ChartPublisher
	History   contract.HistoryStore
	Out       io.Writer
	Logger    *slog.Logger
	Now       func() time.Time
	NewRunID  func() string
	UseEmojis bool
	UseColors bool
}

// ChartPreview is one aggregated table that would be published.
type ChartPreview struct {
	Job     string                   `json:"job"`
	ChartID string                   `json:"chart_id"`
	Label   string                   `json:"label"`
	Title   string                   `json:"title"`
	Target  ChartTarget              `json:"-"`
	Table   schema.ChartTable        `json:"-"`
	Rows    []map[string]schema.Cell `json:"rows"`
}

// stepError is implemented by publisher errors that know which call failed.
type stepError interface {
	FailedStep() string
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) runID() string {
	if r.NewRunID != nil {
		return r.NewRunID()
	}
	return uuid.NewString()
}

// Run executes every job in order. Failures of one chart are reported and the run continues.
func (r *Runner) Run(ctx context.Context, jobs []schema.ChartJob, opts RunOptions) (schema.RunSummary, error) {
	if !opts.DryRun && r.Publisher == nil {
		return schema.RunSummary{}, fmt.Errorf("%w: no chart publisher configured", schema.ErrMissingCredential)
	}

	summary := schema.RunSummary{RunID: r.runID()}
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name)
	}
	if r.History != nil {
		if err := r.History.BeginRun(summary.RunID, r.now(), names, opts.DryRun); err != nil {
			contract.LogWarn("Error recording run start", err)
		}
	}

	var runErr error
	for _, job := range jobs {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		r.runJob(ctx, job, opts, &summary)
	}

	// Close the run row even when canceled
	if r.History != nil {
		if err := r.History.EndRun(summary.RunID, r.now(), summary); err != nil {
			contract.LogWarn("Error recording run end", err)
		}
	}
	r.printSummary(summary)
	return summary, runErr
}

// runJob resolves a job's targets and processes each of them.
func (r *Runner) runJob(ctx context.Context, job schema.ChartJob, opts RunOptions, summary *schema.RunSummary) {
	log := r.logger().With("job", job.Name)
	now := r.now()

	w, err := resolveWindow(ctx, r.Source, job, now)
	if err != nil {
		r.finish(summary, schema.ChartOutcome{Job: job.Name, Status: schema.FailedStatus, Step: DiscoverStep, Err: err})
		return
	}
	// An unfiltered query would fetch the whole dataset
	if w.empty() {
		r.finish(summary, schema.ChartOutcome{Job: job.Name, Period: job.Dataset, Status: schema.SkippedStatus})
		return
	}
	targets := buildTargets(job, w)
	if len(w.periods) > 0 {
		r.printf("🔎", "Found %d available periods for %s\n", len(w.periods), job.Name)
	}
	log.Debug("resolved targets", "count", len(targets), "window", job.Window.Kind())

	// Borough splits share one fetch for the whole window
	var shared []schema.StationRecord
	if job.Split == schema.SplitBorough && len(targets) > 0 {
		shared, err = r.Source.Fetch(ctx, job.Dataset, targets[0].Query)
		if err != nil {
			for _, t := range targets {
				r.finish(summary, schema.ChartOutcome{Job: job.Name, ChartID: t.ChartID, Period: t.Label, Status: schema.FailedStatus, Step: FetchStep, Err: err})
			}
			return
		}
	}

	for _, t := range targets {
		if ctx.Err() != nil {
			return
		}
		outcome := r.processTarget(ctx, job, w, t, shared, opts)
		r.finish(summary, outcome)
	}
}

// processTarget runs fetch, aggregate, title and publish for one chart.
func (r *Runner) processTarget(ctx context.Context, job schema.ChartJob, w window, t ChartTarget, shared []schema.StationRecord, opts RunOptions) schema.ChartOutcome {
	outcome := schema.ChartOutcome{Job: job.Name, ChartID: t.ChartID, Period: t.Label}

	// 1. Records
	var records []schema.StationRecord
	if job.Split == schema.SplitBorough {
		records = filterBorough(shared, t.Borough)
	} else {
		var err error
		records, err = r.Source.Fetch(ctx, job.Dataset, t.Query)
		if err != nil {
			return failed(outcome, FetchStep, err)
		}
	}

	// 2. Aggregate
	table, err := agg.Aggregate(records, job.Spec)
	if err != nil {
		return failed(outcome, AggregateStep, err)
	}
	outcome.Rows = table.Len()
	if table.IsEmpty() {
		outcome.Status = schema.SkippedStatus
		return outcome
	}

	// 3. Title
	title, err := RenderTitle(job, TitleData{
		Job: job.Name, Index: t.Index, Period: t.Period, Borough: t.Borough,
		Since: w.since, Until: w.until, Now: r.now(),
	})
	if err != nil {
		return failed(outcome, TitleStep, err)
	}
	outcome.Title = title

	if t.ChartID == "" {
		return failed(outcome, ChartIDStep, fmt.Errorf("no chart id configured for %s target %d (%s)", job.Name, t.Index, t.Label))
	}

	// 4. Publish
	if opts.DryRun {
		outcome.Status = schema.DryRunStatus
		r.printDryRun(outcome, table)
		return outcome
	}
	if err := r.Publisher.Publish(ctx, t.ChartID, table, title); err != nil {
		step := "publish"
		var se stepError
		if errors.As(err, &se) {
			step = se.FailedStep()
		}
		return failed(outcome, step, err)
	}
	outcome.Status = schema.UpdatedStatus
	return outcome
}

// Preview fetches and aggregates a job without publishing anything.
func (r *Runner) Preview(ctx context.Context, job schema.ChartJob) ([]ChartPreview, error) {
	w, err := resolveWindow(ctx, r.Source, job, r.now())
	if err != nil {
		return nil, err
	}
	if w.empty() {
		return []ChartPreview{}, nil
	}
	targets := buildTargets(job, w)

	var shared []schema.StationRecord
	if job.Split == schema.SplitBorough && len(targets) > 0 {
		if shared, err = r.Source.Fetch(ctx, job.Dataset, targets[0].Query); err != nil {
			return nil, err
		}
	}

	previews := make([]ChartPreview, 0, len(targets))
	for _, t := range targets {
		records := shared
		if job.Split == schema.SplitBorough {
			records = filterBorough(shared, t.Borough)
		} else if records, err = r.Source.Fetch(ctx, job.Dataset, t.Query); err != nil {
			return nil, err
		}
		table, err := agg.Aggregate(records, job.Spec)
		if err != nil {
			return nil, fmt.Errorf("job %q target %s: %w", job.Name, t.Label, err)
		}
		title, err := RenderTitle(job, TitleData{
			Job: job.Name, Index: t.Index, Period: t.Period, Borough: t.Borough,
			Since: w.since, Until: w.until, Now: r.now(),
		})
		if err != nil {
			return nil, err
		}
		previews = append(previews, ChartPreview{
			Job: job.Name, ChartID: t.ChartID, Label: t.Label, Title: title,
			Target: t, Table: table, Rows: table.Maps(),
		})
	}
	return previews, nil
}

// ListPeriods returns up to n distinct periods of a job's dataset, most recent first.
func (r *Runner) ListPeriods(ctx context.Context, job schema.ChartJob, n int) ([]string, error) {
	if n <= 0 {
		n = job.Window.Recent
	}
	return r.Source.DistinctPeriods(ctx, job.Dataset, job.PeriodField, n)
}

func failed(o schema.ChartOutcome, step string, err error) schema.ChartOutcome {
	o.Status = schema.FailedStatus
	o.Step = step
	o.Err = err
	return o
}

// finish prints, records and counts one outcome.
func (r *Runner) finish(summary *schema.RunSummary, o schema.ChartOutcome) {
	summary.Add(o)
	r.printOutcome(len(summary.Outcomes), o)
	if r.History == nil {
		return
	}
	rec := schema.ChartRecord{
		RunID:      summary.RunID,
		Job:        o.Job,
		ChartID:    o.ChartID,
		Title:      o.Title,
		Period:     o.Period,
		RowCount:   int32(o.Rows),
		Status:     o.Status,
		RecordedAt: r.now(),
	}
	if o.Step != "" {
		step := o.Step
		rec.FailedStep = &step
	}
	if o.Err != nil {
		msg := o.Err.Error()
		rec.ErrorText = &msg
	}
	if err := r.History.RecordChart(rec); err != nil {
		contract.LogWarn("Error recording chart outcome", err)
	}
}
