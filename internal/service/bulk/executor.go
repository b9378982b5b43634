package bulk

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/progress"
)

// Tally is the outcome of applying an operation to some ids
type Tally struct {
	Succeeded   int
	Duplicate   int
	AlreadyDone int
	Missing     int
	Failed      int
}

func (t Tally) total() int {
	return t.Succeeded + t.Duplicate + t.AlreadyDone + t.Missing + t.Failed
}

func (t Tally) outcome() string {
	switch {
	case t.Failed > 0:
		return "failed"
	case t.Missing > 0:
		return "missing"
	case t.Duplicate > 0:
		return "duplicate"
	case t.AlreadyDone > 0:
		return "already_done"
	default:
		return "succeeded"
	}
}

// Operation is one bulk-capable action. Batched operations receive every id
// in a single call; the others are applied one id at a time.
type Operation struct {
	Name    string
	Batched bool
	Apply   func(ctx context.Context, userID string, ids []string) (Tally, error)
}

// Summary aggregates the tallies of a bulk run
type Summary struct {
	Operation   string `json:"operation"`
	SessionID   string `json:"session_id,omitempty"`
	Requested   int    `json:"requested"`
	Succeeded   int    `json:"succeeded"`
	Duplicate   int    `json:"duplicate"`
	AlreadyDone int    `json:"already_done"`
	Missing     int    `json:"missing"`
	Failed      int    `json:"failed"`
}

func (s *Summary) add(t Tally) {
	s.Succeeded += t.Succeeded
	s.Duplicate += t.Duplicate
	s.AlreadyDone += t.AlreadyDone
	s.Missing += t.Missing
	s.Failed += t.Failed
}

// Executor fans an operation out over a list of ids
type Executor struct {
	store progress.Store
	log   zerolog.Logger
}

// NewExecutor creates an Executor. store may be nil, in which case session
// ids are ignored.
func NewExecutor(store progress.Store, log zerolog.Logger) *Executor {
	return &Executor{
		store: store,
		log:   log.With().Str("component", "bulk").Logger(),
	}
}

// Run applies op to ids on behalf of userID. When sessionID is set, per-item
// progress is written to the progress store. Item failures are tallied; an
// error is returned only for invalid input or when every item failed.
func (e *Executor) Run(ctx context.Context, op Operation, userID string, ids []string, sessionID string) (*Summary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.CodeUnauthenticated, "user ID required")
	}
	ids = model.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "at least one id is required")
	}

	summary := &Summary{Operation: op.Name, Requested: len(ids)}
	track := e.store != nil && sessionID != ""
	if track {
		if _, err := e.store.Start(ctx, sessionID, userID, op.Name, len(ids)); err != nil {
			return nil, err
		}
		summary.SessionID = sessionID
	}

	var lastErr error
	if op.Batched {
		tally, err := op.Apply(ctx, userID, ids)
		if err != nil {
			lastErr = err
			if tally.total() == 0 {
				tally = Tally{Failed: len(ids)}
			}
		}
		summary.add(tally)
		if track {
			for _, id := range ids {
				e.record(ctx, sessionID, id, tally, err)
			}
		}
	} else {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				lastErr = err
				remaining := len(ids) - (summary.Succeeded + summary.Duplicate + summary.AlreadyDone + summary.Missing + summary.Failed)
				summary.Failed += remaining
				break
			}
			tally, err := op.Apply(ctx, userID, []string{id})
			if err != nil {
				lastErr = err
				if tally.total() == 0 {
					tally = Tally{Failed: 1}
				}
			}
			summary.add(tally)
			if track {
				e.record(ctx, sessionID, id, tally, err)
			}
		}
	}

	var runErr error
	if summary.Failed == summary.Requested {
		runErr = lastErr
		if runErr == nil {
			runErr = apperrors.New(apperrors.CodeInternal, op.Name+": every item failed")
		}
	}

	if track {
		if _, err := e.store.Finish(context.WithoutCancel(ctx), sessionID, runErr); err != nil {
			e.log.Warn().Err(err).Str("session_id", sessionID).Msg("bulk: failed to finish progress session")
		}
	}

	e.log.Info().
		Str("operation", op.Name).
		Str("user_id", userID).
		Int("requested", summary.Requested).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("bulk: run finished")

	return summary, runErr
}

func (e *Executor) record(ctx context.Context, sessionID, id string, tally Tally, itemErr error) {
	item := progress.ItemState{ID: id, Outcome: tally.outcome()}
	if itemErr != nil {
		item.Error = itemErr.Error()
	}
	if _, err := e.store.Update(context.WithoutCancel(ctx), sessionID, item); err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID).Str("id", id).Msg("bulk: failed to record progress")
	}
}
