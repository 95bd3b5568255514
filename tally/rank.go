package tally

import (
	"sort"

	"golang.org/x/exp/maps"

	"votecount/game"
)

// RankedNominee is one row of the nomination standings.
type RankedNominee struct {
	Player     string
	Yays       int
	Nays       int
	UpForTrial bool
	VotePostID string
	Timestamp  int64
}

// Rank orders the open nominations and decides who proceeds to trial.
//
// Trial eligibility is scanned alive-first, strongest affirmative margin
// first, earliest nomination first; a nominee is admitted while alive,
// under the maxTrials cap and holding a strict yay majority. The returned
// display order differs: nominees with any votes come first, then by
// nomination time.
func Rank(rec *game.NominationRecord, dead game.Roster, maxTrials int) []RankedNominee {
	deadline := rec.Deadline

	count := func(nominee string) (yays, nays int) {
		for _, vote := range rec.CurrentVotes[nominee] {
			if deadline != 0 && vote.Timestamp >= deadline {
				continue
			}
			if vote.Approve {
				yays++
			} else {
				nays++
			}
		}
		return yays, nays
	}

	nominees := maps.Keys(rec.CurrentNominations)
	sort.Slice(nominees, func(i, j int) bool {
		a, b := nominees[i], nominees[j]
		if dead.Has(a) != dead.Has(b) {
			return !dead.Has(a)
		}
		aYays, aNays := count(a)
		bYays, bNays := count(b)
		if aNays-aYays != bNays-bYays {
			return aNays-aYays < bNays-bYays
		}
		aTime := rec.CurrentNominations[a].Timestamp
		bTime := rec.CurrentNominations[b].Timestamp
		if aTime != bTime {
			return aTime < bTime
		}
		return a < b
	})

	trials := 0
	ranked := make([]RankedNominee, 0, len(nominees))
	for _, nominee := range nominees {
		yays, nays := count(nominee)
		upForTrial := !dead.Has(nominee) && trials < maxTrials && yays > nays
		if upForTrial {
			trials++
		}
		nomination := rec.CurrentNominations[nominee]
		ranked = append(ranked, RankedNominee{
			Player:     nominee,
			Yays:       yays,
			Nays:       nays,
			UpForTrial: upForTrial,
			VotePostID: nomination.AckID,
			Timestamp:  nomination.Timestamp,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		iVoted := ranked[i].Yays+ranked[i].Nays > 0
		jVoted := ranked[j].Yays+ranked[j].Nays > 0
		if iVoted != jVoted {
			return iVoted
		}
		return ranked[i].Timestamp < ranked[j].Timestamp
	})
	return ranked
}
