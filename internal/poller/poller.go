package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ael-dev3/Hypercast/internal/feed"
	"github.com/ael-dev3/Hypercast/internal/harvest"
	"github.com/ael-dev3/Hypercast/internal/hub"
)

const defaultInterval = 10 * time.Second

// ErrCycleInProgress is returned by RunCycle when a previous cycle is
// still applying results. The interval loop skips such ticks at debug
// level; they are never an operational failure.
var ErrCycleInProgress = errors.New("harvest cycle already in progress")

// Sink receives the durable side of a harvest cycle. Every operation must
// be safe to repeat with the same arguments; *store.Store satisfies this.
type Sink interface {
	UpsertCast(ctx context.Context, act hub.UpsertCast) (inserted, updated bool, err error)
	DeleteCast(ctx context.Context, act hub.DeleteCast) (removed bool, err error)
	UpdateCursor(ctx context.Context, sourceID string, c hub.Cursor) error
}

// Options configures a Poller.
type Options struct {
	Harvest   harvest.Config
	MaxPages  int
	StatePath string        // durable state file; "" disables persistence
	Interval  time.Duration // delay between cycles; defaultInterval when zero
	SourceID  string        // harvester identity; generated when empty
}

// Poller drives repeated harvest cycles against one hub.
type Poller struct {
	opts Options
	sink Sink
	feed *feed.Store

	inFlight atomic.Bool
}

// New creates a poller. When Options.SourceID is empty a UUIDv7 is
// generated so cursor rows in the sink are time-ordered by harvester
// creation.
func New(opts Options, sink Sink, f *feed.Store) *Poller {
	if opts.SourceID == "" {
		opts.SourceID = uuid.Must(uuid.NewV7()).String()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Poller{opts: opts, sink: sink, feed: f}
}

// SourceID returns the harvester identity recorded with every cursor
// update.
func (p *Poller) SourceID() string {
	return p.opts.SourceID
}

// CycleSummary is the observable outcome of one harvest cycle.
type CycleSummary struct {
	Added    int
	Updated  int
	Removed  int
	Received int
	Pages    int
	Cursor   hub.Cursor
}

// RunCycle executes one full harvest cycle: load state, harvest, apply
// every action to the sink in receipt order, update the sink cursor,
// persist the next state, and log a summary. Any sink failure aborts the
// cycle before state persistence, so the next cycle retries from the last
// successfully persisted position. State file writes themselves are
// best-effort.
func (p *Poller) RunCycle(ctx context.Context) (CycleSummary, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return CycleSummary{}, ErrCycleInProgress
	}
	defer p.inFlight.Store(false)

	state := LoadState(p.opts.StatePath)
	cursor := state.Cursor()

	res, err := harvest.FetchAllPages(ctx, p.opts.Harvest, cursor, p.opts.MaxPages)
	if err != nil {
		return CycleSummary{}, fmt.Errorf("harvest from %v: %w", cursor, err)
	}
	page := res.Page

	for _, act := range page.Actions {
		switch a := act.(type) {
		case hub.UpsertCast:
			if _, _, err := p.sink.UpsertCast(ctx, a); err != nil {
				return CycleSummary{}, fmt.Errorf("sink upsert %s: %w", a.Hash, err)
			}
		case hub.DeleteCast:
			if _, err := p.sink.DeleteCast(ctx, a); err != nil {
				return CycleSummary{}, fmt.Errorf("sink delete %s: %w", a.Hash, err)
			}
		}
	}

	counts := p.feed.Apply(page.Actions)
	p.feed.AdvanceCursor(page.Cursor)

	// Advance only when the harvest produced actions; an empty poll keeps
	// the persisted event ID but drops any stale continuation token. A
	// harvest cursor behind the persisted one is rejected outright so a hub
	// re-serving old events cannot roll the resume position back.
	next := state
	if len(page.Actions) > 0 {
		if page.Cursor.FromEventID >= cursor.FromEventID {
			next = StateFromCursor(page.Cursor)
		} else {
			slog.Warn("harvest cursor behind persisted state, keeping state",
				"harvested", page.Cursor.FromEventID,
				"persisted", cursor.FromEventID,
			)
		}
	} else {
		next.PageToken = ""
	}

	if err := p.sink.UpdateCursor(ctx, p.opts.SourceID, next.Cursor()); err != nil {
		return CycleSummary{}, fmt.Errorf("sink cursor update: %w", err)
	}

	if p.opts.StatePath != "" {
		if err := SaveState(p.opts.StatePath, next); err != nil {
			slog.Warn("state write failed", "path", p.opts.StatePath, "error", err)
		}
	}

	summary := CycleSummary{
		Added:    counts.Added,
		Updated:  counts.Updated,
		Removed:  counts.Removed,
		Received: page.ReceivedCount,
		Pages:    res.Pages,
		Cursor:   next.Cursor(),
	}
	slog.Info("harvest cycle complete",
		"added", summary.Added,
		"updated", summary.Updated,
		"removed", summary.Removed,
		"received", summary.Received,
		"pages", summary.Pages,
		"from_event_id", summary.Cursor.FromEventID,
		"page_token", summary.Cursor.PageToken,
	)
	return summary, nil
}

// Run executes cycles until ctx is cancelled. With once set it performs
// exactly one cycle and returns its error. A failed cycle in loop mode is
// logged with cursor zero and the loop keeps going; the next tick retries
// from the last persisted state.
func (p *Poller) Run(ctx context.Context, once bool) error {
	if once {
		_, err := p.RunCycle(ctx)
		return err
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunCycle(ctx); err != nil {
			switch {
			case errors.Is(err, ErrCycleInProgress):
				slog.Debug("tick skipped: cycle still running")
			case ctx.Err() != nil:
				return nil
			default:
				slog.Error("harvest cycle failed", "error", err, "from_event_id", 0)
			}
		}

		select {
		case <-ctx.Done():
			slog.Info("poller stopping: context cancelled")
			return nil
		case <-ticker.C:
		}
	}
}
