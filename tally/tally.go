// Package tally is the deterministic core of the vote counter: it reduces
// comment streams into per-target tallies, derives append-only history from
// tally transitions, ranks nominees for trial and counts votes toward the
// majority threshold.
package tally

import (
	"strings"

	"github.com/rs/zerolog/log"

	"votecount/extract"
	"votecount/forum"
	"votecount/game"
)

// ExtractFunc pulls a vote value out of a comment body, or reports that the
// comment carries no intent.
type ExtractFunc func(bodyHTML string) (game.Vote, bool)

// PolarityExtractor builds an ExtractFunc for nomination sub-votes: a yay or
// nay on the given nominee.
func PolarityExtractor(nominee string) ExtractFunc {
	return func(bodyHTML string) (game.Vote, bool) {
		approve, ok := extract.Polarity(bodyHTML)
		if !ok {
			return game.Vote{}, false
		}
		return game.Vote{Target: nominee, Approve: approve}, true
	}
}

// ChoiceExtractor builds an ExtractFunc for traditional direct votes: the
// value is the chosen target itself.
func ChoiceExtractor(validNames map[string]bool) ExtractFunc {
	return func(bodyHTML string) (game.Vote, bool) {
		choice, ok := extract.Nomination(bodyHTML, validNames)
		if !ok {
			return game.Vote{}, false
		}
		return game.Vote{Choice: choice}, true
	}
}

// Engine tallies votes. It remembers which comments already produced a
// warning (no intent, ineligible caster) so unchanged comments do not spam
// the log across poll cycles.
type Engine struct {
	knownInvalid map[string]bool
}

func NewEngine() *Engine {
	return &Engine{knownInvalid: map[string]bool{}}
}

// Count reduces comments into the current tally for one target.
//
// Rules, in order:
//   - comments without a resolvable author or extractable vote are skipped;
//   - the caster must be in eligible (lower-cased names);
//   - the effective timestamp is the comment's last-edit time, but a re-edit
//     that keeps the prior vote's value retains the prior timestamp;
//   - votes effectively timestamped after deadline (when nonzero) are
//     excluded;
//   - when a caster has several qualifying votes the earliest recorded one
//     wins; a genuinely different later vote overwrites because the
//     stability rule no longer pins its timestamp.
//
// The tally is rebuilt from scratch each cycle, so a deadline set after a
// vote appeared still excludes it.
func (e *Engine) Count(comments []*forum.Comment, eligible game.Roster, prior game.VoteTally, deadline int64, extractVote ExtractFunc) game.VoteTally {
	votes := game.VoteTally{}
	for _, c := range comments {
		if c.Author == "" {
			continue
		}
		vote, ok := extractVote(c.BodyHTML)
		if !ok {
			e.WarnOnce(c.ID, func() {
				log.Warn().Str("comment", c.ID).Msg("no vote found in comment")
			})
			continue
		}
		caster := strings.ToLower(c.Author)
		if !eligible.Has(caster) {
			e.WarnOnce(c.ID, func() {
				log.Info().Str("comment", c.ID).Msgf("%s is not eligible to vote here", caster)
			})
			continue
		}

		timestamp := c.EffectiveTime()
		if old, voted := prior[caster]; voted && old.SameValue(vote) {
			timestamp = old.Timestamp
		}
		if deadline != 0 && timestamp > deadline {
			continue
		}

		vote.Timestamp = timestamp
		if current, voted := votes[caster]; !voted || current.Timestamp > timestamp {
			votes[caster] = vote
		}
	}
	return votes
}

// WarnOnce runs logit the first time commentID is flagged and suppresses
// every later occurrence, so unchanged comments do not re-log each cycle.
func (e *Engine) WarnOnce(commentID string, logit func()) {
	if e.knownInvalid[commentID] {
		return
	}
	e.knownInvalid[commentID] = true
	logit()
}
