// Package engine runs the read-reduce-write poll cycle for one game
// instance. Each cycle folds moderator commands, refreshes vote tallies for
// every monitored thread, runs the game-type hook and commits the new state.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"votecount/commands"
	"votecount/config"
	"votecount/forum"
	"votecount/game"
	"votecount/report"
	"votecount/store"
	"votecount/tally"
)

// strategy is the game-type specific half of the cycle, chosen once at
// startup.
type strategy interface {
	// refreshTallies recounts every monitored thread into st.
	refreshTallies(ctx context.Context, st *game.GameState) error
	// postCycle runs after tallies are fresh: traditional games check
	// the hammer here, nomination games have nothing left to do.
	postCycle(ctx context.Context, st *game.GameState) error
}

// Engine drives one game. It is single-writer: a cycle mutates a deep copy
// of the last committed state and commits it only after the whole cycle
// succeeds, so a failed cycle loses nothing.
type Engine struct {
	cfg      config.Game
	botName  string
	dryRun   bool
	client   forum.Client
	loader   *forum.Loader
	actions  *forum.Actions
	store    *store.Store
	reducer  *commands.Reducer
	tallier  *tally.Engine
	strategy strategy
	state    *game.GameState
	now      func() int64
}

func New(cfg config.Game, botName string, client forum.Client, dryRun bool) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		botName: botName,
		dryRun:  dryRun,
		client:  client,
		loader:  forum.NewLoader(client),
		actions: forum.NewActions(client, dryRun),
		store:   store.New(cfg.StateFile),
		reducer: commands.NewReducer(cfg.Name, cfg.AuthorizedUsers),
		tallier: tally.NewEngine(),
		now:     func() int64 { return time.Now().Unix() },
	}
	switch cfg.GameType {
	case game.TypeNomination:
		e.strategy = &nominationGame{e}
	case game.TypeTraditional:
		e.strategy = &traditionalGame{e: e}
	default:
		return nil, fmt.Errorf("game %s: unknown game type %q", cfg.Name, cfg.GameType)
	}
	return e, nil
}

// Run polls until ctx is cancelled. The game-type check on the persisted
// state happens here and is the only fatal error; any later cycle failure
// is logged and retried on the next tick.
func (e *Engine) Run(ctx context.Context, interval time.Duration, oneshot bool) error {
	st, err := e.store.Load(e.cfg.GameType)
	if err != nil {
		return fmt.Errorf("game %s: %w", e.cfg.Name, err)
	}
	e.state = st

	for {
		e.runCycle(ctx)
		if oneshot {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// runCycle shields the poll loop from a single bad cycle.
func (e *Engine) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("game", e.cfg.Name).
				Msgf("cycle panic: %v\n%s", r, debug.Stack())
		}
	}()
	if err := e.Cycle(ctx); err != nil {
		log.Error().Err(err).Str("game", e.cfg.Name).
			Msg("cycle failed, retrying next poll")
	}
}

// Cycle executes one read-reduce-write pass: commands, then tallies, then
// the post-cycle hook, then an atomic commit.
func (e *Engine) Cycle(ctx context.Context) error {
	log.Debug().Str("game", e.cfg.Name).Msg("starting cycle")
	inbox, err := e.client.Inbox(ctx)
	if err != nil {
		return fmt.Errorf("fetching inbox: %w", err)
	}

	st := e.reducer.Apply(e.state, inbox)
	if err := e.strategy.refreshTallies(ctx, st); err != nil {
		return err
	}
	if err := e.strategy.postCycle(ctx, st); err != nil {
		return err
	}
	if err := e.store.Save(st); err != nil {
		return err
	}
	e.state = st
	log.Debug().Str("game", e.cfg.Name).Msg("cycle committed")
	return nil
}

// State exposes the last committed state.
func (e *Engine) State() *game.GameState {
	return e.state
}

// botPost fetches a submission's comment tree and locates the bot's status
// comment for tag among it, if one exists yet.
func (e *Engine) botPost(ctx context.Context, url, tag string) (*forum.Comment, error) {
	roots, err := e.client.Submission(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	for _, c := range e.loader.Walk(ctx, roots) {
		if strings.EqualFold(c.Author, e.botName) && report.HasTag(c.Body, tag) {
			return c, nil
		}
	}
	return nil, nil
}

// historyURL is the public link to a post's history file, available when
// the game publishes its output directory somewhere.
func (e *Engine) historyURL(postID string) string {
	if e.cfg.OutputURL == "" {
		return ""
	}
	return strings.TrimRight(e.cfg.OutputURL, "/") + "/" + postID + "_history.txt"
}

// writeLog drops a rendered log file unless this is a dry run.
func (e *Engine) writeLog(filename, contents string) {
	if e.dryRun {
		return
	}
	if err := report.WriteLog(e.cfg.OutputDir, filename, contents); err != nil {
		log.Warn().Err(err).Str("game", e.cfg.Name).Msg("could not write log file")
	}
}

// rosterSet converts a roster into the lookup form the extractor takes.
func rosterSet(r game.Roster) map[string]bool {
	set := make(map[string]bool, r.Len())
	for _, name := range r.Names() {
		set[name] = true
	}
	return set
}
