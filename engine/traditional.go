package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"votecount/extract"
	"votecount/game"
	"votecount/report"
	"votecount/tally"
)

// traditionalGame tracks a single vote thread where players vote directly
// on a target and a majority hammer ends the vote.
type traditionalGame struct {
	e *Engine
	// postID is the vote post refreshed this cycle, consumed by the
	// hammer check. Cycles are strictly sequential, so one slot is
	// enough.
	postID string
}

func (g *traditionalGame) refreshTallies(ctx context.Context, st *game.GameState) error {
	e := g.e
	g.postID = ""
	st.NameCase[extract.NoLynch] = "No Lynch"

	namer := report.NewNamer(e.client, st)
	fix := func(name string) string { return namer.FixCase(ctx, name) }
	e.writeLog("players.txt", report.RenderRoster(st, fix))

	if st.VotesURL == "" {
		return nil
	}

	post, err := e.botPost(ctx, st.VotesURL, "vote")
	if err != nil {
		return err
	}
	if post == nil {
		body := report.RenderVoteStatus(report.VoteReport{
			Tag:       "vote",
			Threshold: st.EffectiveThreshold(),
		}, fix)
		return e.actions.UpsertStatus(ctx, st.VotesURL, nil, body)
	}
	g.postID = post.ID

	validNames := rosterSet(st.Alive)
	validNames[extract.NoLynch] = true

	rec := st.VoteRecordFor(post.ID)
	old := rec.CurrentVotes.Copy()
	votes := e.tallier.Count(e.loader.Walk(ctx, post.Replies), st.Alive, old,
		st.VotesEndedAt, tally.ChoiceExtractor(validNames))
	rec.CurrentVotes = votes
	rec.History = append(rec.History, tally.HistoryEvents(old, votes, e.now())...)

	public, real := tally.Counts(votes, st.Voteless)
	counts := public
	if !e.cfg.SecretVoteless {
		counts = real
	}
	body := report.RenderVoteStatus(report.VoteReport{
		Tag:        "vote",
		Counts:     counts,
		Threshold:  st.EffectiveThreshold(),
		History:    rec.History,
		HistoryURL: e.historyURL(post.ID),
	}, fix)
	if err := e.actions.UpsertStatus(ctx, st.VotesURL, post, body); err != nil {
		return err
	}
	e.writeLog(post.ID+"_votes.txt", body)
	e.writeLog(post.ID+"_history.txt", report.RenderHistory(rec.History, fix))
	return nil
}

// postCycle is the hammer monitor: when the leading real vote count reaches
// the threshold while voting is still open, voting ends immediately and the
// moderators are notified once. The transition is irreversible within a
// game.
func (g *traditionalGame) postCycle(ctx context.Context, st *game.GameState) error {
	e := g.e
	if !e.cfg.Hammers || g.postID == "" || st.VotesEndedAt != 0 {
		return nil
	}
	rec := st.Votes[g.postID]
	if rec == nil || len(rec.CurrentVotes) == 0 {
		return nil
	}

	_, real := tally.Counts(rec.CurrentVotes, st.Voteless)
	leader, count := tally.Leader(real)
	if count < st.EffectiveThreshold() {
		return nil
	}

	log.Info().Str("game", e.cfg.Name).Msgf("hammer: majority reached for %s", leader)
	url := st.VotesURL
	st.VotesEndedAt = e.now()
	st.VotesURL = ""

	body := fmt.Sprintf("The voting at %s has reached a majority for %s. "+
		"You might want to check the voting history and edit times if there "+
		"were a few last-minute vote changes.", url, leader)
	for _, user := range e.cfg.AuthorizedUsers {
		if err := e.actions.Notify(ctx, user, "Hammer", body); err != nil {
			return err
		}
	}
	return nil
}
