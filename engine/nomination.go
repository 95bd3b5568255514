package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"votecount/extract"
	"votecount/forum"
	"votecount/game"
	"votecount/report"
	"votecount/tally"
)

// nominationGame tracks a nominations thread where players propose nominees
// and yay/nay sub-votes under each acknowledgement decide who stands trial.
type nominationGame struct {
	e *Engine
}

func (g *nominationGame) refreshTallies(ctx context.Context, st *game.GameState) error {
	if st.NominationsURL != "" && st.CountingNominations {
		if err := g.refreshNominations(ctx, st); err != nil {
			return err
		}
		if st.NominationsEndedAt != 0 {
			st.CountingNominations = false
		}
	}
	if st.VotesURL != "" && st.CountingVotes {
		for _, nominee := range st.NominatedPlayers {
			if err := g.refreshTrialVotes(ctx, st, nominee); err != nil {
				return err
			}
		}
		if st.VotesEndedAt != 0 {
			st.CountingVotes = false
		}
	}
	return nil
}

// postCycle is empty for nomination games: the ranking is computed during
// the refresh and consumed by the rendered status.
func (g *nominationGame) postCycle(ctx context.Context, st *game.GameState) error {
	return nil
}

func (g *nominationGame) refreshNominations(ctx context.Context, st *game.GameState) error {
	e := g.e
	namer := report.NewNamer(e.client, st)
	fix := func(name string) string { return namer.FixCase(ctx, name) }

	post, err := e.botPost(ctx, st.NominationsURL, "nominate")
	if err != nil {
		return err
	}
	if post == nil {
		// No status comment yet: seed one so nominations have a home.
		body := report.RenderNominationStatus(report.NominationReport{Tag: "nominate"}, fix)
		return e.actions.UpsertStatus(ctx, st.NominationsURL, nil, body)
	}

	rec := st.NominationRecordFor(post.ID)
	rec.Deadline = st.NominationsEndedAt
	comments := e.loader.Walk(ctx, post.Replies)
	validNames := rosterSet(st.Alive)

	// First pass: pick up new nominations and acknowledge them.
	for _, c := range comments {
		if c.Author == "" {
			continue
		}
		nominee, ok := extract.Nomination(c.BodyHTML, validNames)
		if !ok {
			continue
		}
		caster := strings.ToLower(c.Author)
		if !st.Alive.Has(caster) {
			e.tallier.WarnOnce(c.ID, func() {
				log.Info().Str("comment", c.ID).Msgf("%s cannot nominate", caster)
			})
			continue
		}
		if _, already := rec.CurrentNominations[nominee]; already {
			continue
		}
		timestamp := c.EffectiveTime()
		if st.NominationsEndedAt != 0 && timestamp > st.NominationsEndedAt {
			continue
		}

		ackID, err := g.acknowledge(ctx, c, nominee, fix)
		if err != nil {
			return err
		}
		rec.History = append(rec.History, game.HistoryEvent{
			Action: game.ActionNominated,
			By:     caster,
			Target: nominee,
			Time:   timestamp,
		})
		rec.CurrentNominations[nominee] = game.Nomination{
			By:        caster,
			Target:    nominee,
			AckID:     ackID,
			Timestamp: timestamp,
		}
	}

	// Second pass: tally the yay/nay sub-votes under each acknowledgement.
	byAck := map[string]string{}
	for nominee, nomination := range rec.CurrentNominations {
		if nomination.AckID != "" {
			byAck[nomination.AckID] = nominee
		}
	}
	for _, c := range comments {
		nominee, ok := byAck[c.ID]
		if !ok {
			continue
		}
		old := rec.Tally(nominee).Copy()
		votes := e.tallier.Count(e.loader.Walk(ctx, c.Replies), st.Alive, old,
			st.NominationsEndedAt, tally.PolarityExtractor(nominee))
		rec.CurrentVotes[nominee] = votes
		rec.History = append(rec.History, tally.HistoryEvents(old, votes, e.now())...)
	}

	ranked := tally.Rank(rec, st.Dead, st.MaxTrials)
	body := report.RenderNominationStatus(report.NominationReport{
		Tag:        "nominate",
		Ranked:     ranked,
		History:    rec.History,
		HistoryURL: e.historyURL(post.ID),
	}, fix)
	if err := e.actions.UpsertStatus(ctx, st.NominationsURL, post, body); err != nil {
		return err
	}
	e.writeLog(post.ID+"_nominations.txt", body)
	e.writeLog(post.ID+"_history.txt", report.RenderHistory(rec.History, fix))
	return nil
}

// acknowledge finds or posts the bot's acknowledgement reply under a
// nominating comment. The reply anchors the nominee's sub-vote thread.
func (g *nominationGame) acknowledge(ctx context.Context, c *forum.Comment, nominee string, fix func(string) string) (string, error) {
	e := g.e
	for _, reply := range e.loader.Walk(ctx, c.Replies) {
		if strings.EqualFold(reply.Author, e.botName) {
			log.Debug().Msgf("found old acknowledgement for %s", nominee)
			return reply.ID, nil
		}
	}
	log.Info().Msgf("acknowledging nomination for %s", nominee)
	return e.actions.Reply(ctx, c.ID, report.AckText(nominee, fix))
}

func (g *nominationGame) refreshTrialVotes(ctx context.Context, st *game.GameState, nominee string) error {
	e := g.e
	namer := report.NewNamer(e.client, st)
	fix := func(name string) string { return namer.FixCase(ctx, name) }
	tag := "vote " + nominee

	post, err := e.botPost(ctx, st.VotesURL, tag)
	if err != nil {
		return err
	}
	if post == nil {
		body := report.RenderTrialStatus(report.TrialReport{Tag: tag, Target: nominee}, fix)
		return e.actions.UpsertStatus(ctx, st.VotesURL, nil, body)
	}

	rec := st.VoteRecordFor(post.ID)
	old := rec.CurrentVotes.Copy()
	votes := e.tallier.Count(e.loader.Walk(ctx, post.Replies), st.Alive, old,
		st.VotesEndedAt, tally.PolarityExtractor(nominee))
	rec.CurrentVotes = votes
	rec.History = append(rec.History, tally.HistoryEvents(old, votes, e.now())...)

	yays, nays := 0, 0
	for _, vote := range votes {
		if vote.Approve {
			yays++
		} else {
			nays++
		}
	}
	body := report.RenderTrialStatus(report.TrialReport{
		Tag:        tag,
		Target:     nominee,
		Yays:       yays,
		Nays:       nays,
		History:    rec.History,
		HistoryURL: e.historyURL(post.ID),
	}, fix)
	if err := e.actions.UpsertStatus(ctx, st.VotesURL, post, body); err != nil {
		return err
	}
	e.writeLog(post.ID+"_votes.txt", body)
	e.writeLog(fmt.Sprintf("%s_history.txt", post.ID), report.RenderHistory(rec.History, fix))
	return nil
}
