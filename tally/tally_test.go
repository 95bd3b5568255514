package tally

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"votecount/forum"
	"votecount/game"
)

func comment(id, author, body string, created, edited int64) *forum.Comment {
	return &forum.Comment{
		ID:        id,
		Author:    author,
		BodyHTML:  body,
		CreatedAt: created,
		EditedAt:  edited,
	}
}

func bold(text string) string {
	return "<p><strong>" + text + "</strong></p>"
}

func TestCount(t *testing.T) {
	alive := game.NewRoster("ann", "bob", "cleo")

	t.Run("basic polarity tally", func(t *testing.T) {
		comments := []*forum.Comment{
			comment("c1", "Ann", bold("yay"), 100, 0),
			comment("c2", "Bob", bold("nay"), 110, 0),
		}
		got := NewEngine().Count(comments, alive, nil, 0, PolarityExtractor("zed"))

		want := game.VoteTally{
			"ann": {Target: "zed", Approve: true, Timestamp: 100},
			"bob": {Target: "zed", Approve: false, Timestamp: 110},
		}
		require.Empty(t, cmp.Diff(want, got))
	})

	t.Run("voter appears at most once", func(t *testing.T) {
		comments := []*forum.Comment{
			comment("c1", "Ann", bold("yay"), 100, 0),
			comment("c2", "Ann", bold("nay"), 120, 0),
			comment("c3", "Ann", bold("yay"), 140, 0),
		}
		got := NewEngine().Count(comments, alive, nil, 0, PolarityExtractor("zed"))
		require.Len(t, got, 1, "uniqueness invariant")
		require.Equal(t, int64(100), got["ann"].Timestamp,
			"the earliest recorded vote wins")
	})

	t.Run("ineligible and deleted casters are excluded", func(t *testing.T) {
		comments := []*forum.Comment{
			comment("c1", "Zed", bold("yay"), 100, 0),
			comment("c2", "", bold("yay"), 110, 0),
		}
		got := NewEngine().Count(comments, alive, nil, 0, PolarityExtractor("bob"))
		require.Empty(t, got)
	})

	t.Run("stability: cosmetic re-edit keeps the original timestamp", func(t *testing.T) {
		prior := game.VoteTally{"ann": {Target: "zed", Approve: true, Timestamp: 100}}
		comments := []*forum.Comment{
			comment("c1", "Ann", bold("yay but louder"), 100, 500),
		}
		got := NewEngine().Count(comments, alive, prior, 0, PolarityExtractor("zed"))
		require.Equal(t, int64(100), got["ann"].Timestamp,
			"re-editing without changing polarity must not move the timestamp")
	})

	t.Run("a changed vote adopts the edit time", func(t *testing.T) {
		prior := game.VoteTally{"ann": {Target: "zed", Approve: true, Timestamp: 100}}
		comments := []*forum.Comment{
			comment("c1", "Ann", bold("nay"), 100, 500),
		}
		got := NewEngine().Count(comments, alive, prior, 0, PolarityExtractor("zed"))
		require.Equal(t, game.Vote{Target: "zed", Approve: false, Timestamp: 500}, got["ann"])
	})

	t.Run("deadline excludes late votes even when set retroactively", func(t *testing.T) {
		comments := []*forum.Comment{
			comment("c1", "Ann", bold("yay"), 100, 0),
			comment("c2", "Bob", bold("yay"), 900, 0),
		}
		// The tally is recomputed from scratch, so a deadline set after
		// Bob's comment appeared still drops it.
		got := NewEngine().Count(comments, alive, nil, 500, PolarityExtractor("zed"))
		require.Len(t, got, 1)
		require.Contains(t, got, "ann")
	})

	t.Run("choice extractor records the target string", func(t *testing.T) {
		valid := map[string]bool{"ann": true, "bob": true, "no lynch": true}
		comments := []*forum.Comment{
			comment("c1", "Ann", bold("lynch bob"), 100, 0),
			comment("c2", "Bob", bold("vote no lynch"), 110, 0),
		}
		got := NewEngine().Count(comments, alive, nil, 0, ChoiceExtractor(valid))
		require.Equal(t, "bob", got["ann"].Choice)
		require.Equal(t, "no lynch", got["bob"].Choice)
	})
}

func TestDiff(t *testing.T) {
	t.Run("identical tallies diff to nothing", func(t *testing.T) {
		tally := game.VoteTally{
			"ann": {Target: "zed", Approve: true, Timestamp: 100},
			"bob": {Target: "zed", Approve: false, Timestamp: 110},
		}
		additions, removals := Diff(tally, tally)
		require.Empty(t, additions, "idempotence")
		require.Empty(t, removals, "idempotence")
	})

	t.Run("new changed and dropped votes", func(t *testing.T) {
		old := game.VoteTally{
			"ann": {Target: "zed", Approve: true, Timestamp: 100},
			"bob": {Target: "zed", Approve: false, Timestamp: 110},
		}
		new := game.VoteTally{
			"ann": {Target: "zed", Approve: false, Timestamp: 300},
			"cleo": {Target: "zed", Approve: true, Timestamp: 200},
		}
		additions, removals := Diff(old, new)
		require.Empty(t, cmp.Diff(new, additions),
			"ann changed and cleo is new")
		require.Empty(t, cmp.Diff(old, removals),
			"ann's old value was superseded and bob retracted")
	})
}

func TestHistoryEvents(t *testing.T) {
	old := game.VoteTally{
		"ann": {Target: "zed", Approve: true, Timestamp: 100},
		"bob": {Target: "zed", Approve: false, Timestamp: 110},
	}
	new := game.VoteTally{
		"ann": {Target: "zed", Approve: false, Timestamp: 300},
	}

	events := HistoryEvents(old, new, 999)
	require.Len(t, events, 3)

	require.Equal(t, game.HistoryEvent{
		Action: game.ActionVote, By: "ann", Target: "zed", Approve: false, Time: 300,
	}, events[0])
	require.Equal(t, game.ActionUnvote, events[1].Action)
	require.Equal(t, "ann", events[1].By)
	require.Equal(t, int64(300), events[1].Time,
		"an unvote caused by a replacement carries the replacing vote's time")
	require.Equal(t, game.ActionUnvote, events[2].Action)
	require.Equal(t, "bob", events[2].By)
	require.Equal(t, int64(999), events[2].Time,
		"an unvote with no replacement carries the detection time")

	require.Empty(t, HistoryEvents(new, new, 999),
		"replaying an identical tally appends nothing")
}

func TestRank(t *testing.T) {
	build := func() *game.NominationRecord {
		rec := game.NewNominationRecord()
		rec.CurrentNominations["a"] = game.Nomination{By: "ann", Target: "a", AckID: "ack-a", Timestamp: 10}
		rec.CurrentNominations["b"] = game.Nomination{By: "bob", Target: "b", AckID: "ack-b", Timestamp: 20}
		rec.CurrentNominations["c"] = game.Nomination{By: "cleo", Target: "c", AckID: "ack-c", Timestamp: 30}
		vote := func(nominee, voter string, approve bool, ts int64) {
			rec.Tally(nominee)[voter] = game.Vote{Target: nominee, Approve: approve, Timestamp: ts}
		}
		// A: 3 yay, 1 nay. B: 1 yay, 2 nay. C: 4 yay.
		vote("a", "v1", true, 1)
		vote("a", "v2", true, 2)
		vote("a", "v3", true, 3)
		vote("a", "v4", false, 4)
		vote("b", "v1", true, 5)
		vote("b", "v2", false, 6)
		vote("b", "v3", false, 7)
		vote("c", "v1", true, 8)
		vote("c", "v2", true, 9)
		vote("c", "v3", true, 10)
		vote("c", "v4", true, 11)
		return rec
	}

	t.Run("trial cap, majority and liveness", func(t *testing.T) {
		dead := game.NewRoster("c")
		ranked := Rank(build(), dead, 1)

		byPlayer := map[string]RankedNominee{}
		for _, r := range ranked {
			byPlayer[r.Player] = r
		}
		require.True(t, byPlayer["a"].UpForTrial,
			"A holds the strongest live majority and takes the only trial slot")
		require.False(t, byPlayer["b"].UpForTrial, "B lacks a majority")
		require.False(t, byPlayer["c"].UpForTrial, "C is dead regardless of votes")
		require.Equal(t, 3, byPlayer["a"].Yays)
		require.Equal(t, 1, byPlayer["a"].Nays)
	})

	t.Run("ties do not qualify", func(t *testing.T) {
		rec := game.NewNominationRecord()
		rec.CurrentNominations["a"] = game.Nomination{By: "ann", Target: "a", Timestamp: 10}
		rec.Tally("a")["v1"] = game.Vote{Target: "a", Approve: true, Timestamp: 1}
		rec.Tally("a")["v2"] = game.Vote{Target: "a", Approve: false, Timestamp: 2}

		ranked := Rank(rec, game.Roster{}, 5)
		require.False(t, ranked[0].UpForTrial, "yays must strictly exceed nays")
	})

	t.Run("display order puts voted nominees first then by time", func(t *testing.T) {
		rec := game.NewNominationRecord()
		rec.CurrentNominations["a"] = game.Nomination{By: "ann", Target: "a", Timestamp: 10}
		rec.CurrentNominations["b"] = game.Nomination{By: "bob", Target: "b", Timestamp: 20}
		rec.CurrentNominations["c"] = game.Nomination{By: "cleo", Target: "c", Timestamp: 5}
		rec.Tally("b")["v1"] = game.Vote{Target: "b", Approve: true, Timestamp: 1}

		ranked := Rank(rec, game.Roster{}, 5)
		order := []string{ranked[0].Player, ranked[1].Player, ranked[2].Player}
		require.Equal(t, []string{"b", "c", "a"}, order)
	})

	t.Run("deadline excludes late sub-votes from the counts", func(t *testing.T) {
		rec := game.NewNominationRecord()
		rec.Deadline = 100
		rec.CurrentNominations["a"] = game.Nomination{By: "ann", Target: "a", Timestamp: 10}
		rec.Tally("a")["v1"] = game.Vote{Target: "a", Approve: true, Timestamp: 50}
		rec.Tally("a")["v2"] = game.Vote{Target: "a", Approve: true, Timestamp: 150}

		ranked := Rank(rec, game.Roster{}, 5)
		require.Equal(t, 1, ranked[0].Yays)
	})
}

func TestCounts(t *testing.T) {
	votes := game.VoteTally{
		"ann":  {Choice: "zed", Timestamp: 1},
		"bob":  {Choice: "zed", Timestamp: 2},
		"cleo": {Choice: "no lynch", Timestamp: 3},
	}
	public, real := Counts(votes, game.NewRoster("bob"))

	require.Equal(t, map[string]int{"zed": 2, "no lynch": 1}, public)
	require.Equal(t, map[string]int{"zed": 1, "no lynch": 1}, real,
		"voteless casters are dropped from the real counts")

	target, count := Leader(real)
	require.Equal(t, "no lynch", target, "ties break lexicographically")
	require.Equal(t, 1, count)
}
