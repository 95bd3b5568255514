package tally

import (
	"sort"

	"golang.org/x/exp/maps"

	"votecount/game"
)

// Diff computes the symmetric difference between two tallies over the full
// voter/value/timestamp tuple space. Diff(t, t) is empty for any t.
func Diff(old, new game.VoteTally) (additions, removals game.VoteTally) {
	additions = game.VoteTally{}
	removals = game.VoteTally{}
	for voter, vote := range new {
		if prior, ok := old[voter]; !ok || prior != vote {
			additions[voter] = vote
		}
	}
	for voter, vote := range old {
		if current, ok := new[voter]; !ok || current != vote {
			removals[voter] = vote
		}
	}
	return additions, removals
}

// HistoryEvents derives the append-only log entries for a tally transition:
// one vote event per addition and one unvote event per removal. An unvote is
// timestamped with the voter's current vote when one replaced the old vote,
// else with now (the old vote vanished, e.g. the comment was deleted).
// Events are ordered by voter for stable replay.
func HistoryEvents(old, new game.VoteTally, now int64) []game.HistoryEvent {
	additions, removals := Diff(old, new)
	var events []game.HistoryEvent
	for _, voter := range sortedVoters(additions) {
		vote := additions[voter]
		events = append(events, game.HistoryEvent{
			Action:  game.ActionVote,
			By:      voter,
			Target:  vote.Target,
			Approve: vote.Approve,
			Choice:  vote.Choice,
			Time:    vote.Timestamp,
		})
	}
	for _, voter := range sortedVoters(removals) {
		vote := removals[voter]
		timestamp := now
		if current, ok := new[voter]; ok {
			timestamp = current.Timestamp
		}
		events = append(events, game.HistoryEvent{
			Action:  game.ActionUnvote,
			By:      voter,
			Target:  vote.Target,
			Approve: vote.Approve,
			Choice:  vote.Choice,
			Time:    timestamp,
		})
	}
	return events
}

func sortedVoters(t game.VoteTally) []string {
	voters := maps.Keys(t)
	sort.Strings(voters)
	return voters
}
