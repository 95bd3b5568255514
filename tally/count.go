package tally

import (
	"sort"

	"golang.org/x/exp/maps"

	"votecount/game"
)

// Counts groups a direct-vote tally by chosen target. The real counts drop
// voteless casters; the public counts keep them, so a game configured with
// secret voteless players can display counts that include them while the
// hammer fires only on the real ones.
func Counts(t game.VoteTally, voteless game.Roster) (public, real map[string]int) {
	public = map[string]int{}
	real = map[string]int{}
	for caster, vote := range t {
		public[vote.Choice]++
		if !voteless.Has(caster) {
			real[vote.Choice]++
		}
	}
	return public, real
}

// Leader returns the target with the highest count. Ties break to the
// lexicographically smallest target so the result is deterministic.
func Leader(counts map[string]int) (target string, count int) {
	targets := maps.Keys(counts)
	sort.Strings(targets)
	for _, t := range targets {
		if counts[t] > count {
			target, count = t, counts[t]
		}
	}
	return target, count
}
