package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"votecount/config"
	"votecount/forum"
	"votecount/game"
	"votecount/store"
)

func bold(text string) string {
	return "<p><strong>" + text + "</strong></p>"
}

func testEngine(t *testing.T, cfg config.Game, fake *forum.Fake, seed *game.GameState) *Engine {
	t.Helper()
	cfg.StateFile = filepath.Join(t.TempDir(), "state.json")
	if seed != nil {
		require.NoError(t, store.New(cfg.StateFile).Save(seed))
	}
	fake.BotName = "countbot"
	e, err := New(cfg, "countbot", fake, false)
	require.NoError(t, err)
	e.now = func() int64 { return 5000 }
	return e
}

func runOnce(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Run(context.Background(), time.Second, true))
}

func TestTraditionalHammer(t *testing.T) {
	fake := forum.NewFake()
	status := &forum.Comment{ID: "status", Author: "countbot", Body: "###vote###"}
	fake.Posts["https://forum.example/t/9"] = []*forum.Comment{status}
	for i, voter := range []string{"carol", "david", "erin5", "frank", "grace"} {
		status.Replies = append(status.Replies, &forum.Comment{
			ID:        "v" + voter,
			Author:    voter,
			BodyHTML:  bold("lynch henry"),
			CreatedAt: int64(100 + i),
		})
	}

	seed := game.NewGameState(game.TypeTraditional)
	seed.Alive.Add("alice", "brett", "carol", "david", "erin5",
		"frank", "grace", "henry", "irene", "jack2")
	seed.Voteless.Add("alice", "brett")
	seed.VotesURL = "https://forum.example/t/9"

	outputDir := t.TempDir()
	cfg := config.Game{
		Name:            "classic",
		GameType:        game.TypeTraditional,
		Hammers:         true,
		OutputDir:       outputDir,
		AuthorizedUsers: []string{"themod"},
	}
	e := testEngine(t, cfg, fake, seed)

	t.Run("computed threshold fires the hammer exactly once", func(t *testing.T) {
		runOnce(t, e)

		st := e.State()
		require.Equal(t, 5, seed.EffectiveThreshold(), "floor((10-2)/2)+1")
		require.Equal(t, int64(5000), st.VotesEndedAt, "voting ends at the hammer")
		require.Empty(t, st.VotesURL, "the votes thread is closed")
		require.Len(t, fake.Sent, 1, "one notification per authorized user")
		require.Equal(t, "themod", fake.Sent[0].To)
		require.Equal(t, "Hammer", fake.Sent[0].Subject)
		require.Contains(t, fake.Sent[0].Body, "henry")
	})

	t.Run("a second cycle does not fire again", func(t *testing.T) {
		runOnce(t, e)
		require.Len(t, fake.Sent, 1, "the hammer is irreversible within a game")
		require.Equal(t, int64(5000), e.State().VotesEndedAt)
	})

	t.Run("log files land in the output directory", func(t *testing.T) {
		require.FileExists(t, filepath.Join(outputDir, "players.txt"))
		require.FileExists(t, filepath.Join(outputDir, "status_votes.txt"))
		require.FileExists(t, filepath.Join(outputDir, "status_history.txt"))
	})
}

func TestTraditionalVotelessExcludedFromHammer(t *testing.T) {
	fake := forum.NewFake()
	status := &forum.Comment{ID: "status", Author: "countbot", Body: "###vote###"}
	fake.Posts["https://forum.example/t/9"] = []*forum.Comment{status}
	// Two of the three votes come from voteless players.
	for _, voter := range []string{"alice", "brett", "carol"} {
		status.Replies = append(status.Replies, &forum.Comment{
			ID:        "v" + voter,
			Author:    voter,
			BodyHTML:  bold("lynch david"),
			CreatedAt: 100,
		})
	}

	seed := game.NewGameState(game.TypeTraditional)
	seed.Alive.Add("alice", "brett", "carol", "david")
	seed.Voteless.Add("alice", "brett")
	seed.VotesURL = "https://forum.example/t/9"
	seed.VoteThreshold = 2

	cfg := config.Game{
		Name:            "classic",
		GameType:        game.TypeTraditional,
		Hammers:         true,
		SecretVoteless:  true,
		AuthorizedUsers: []string{"themod"},
	}
	e := testEngine(t, cfg, fake, seed)
	runOnce(t, e)

	require.Zero(t, e.State().VotesEndedAt,
		"only one real vote was cast, below the explicit threshold of 2")
	require.Empty(t, fake.Sent)
	require.Len(t, e.State().Votes["status"].CurrentVotes, 3,
		"voteless players still appear in the tally itself")
}

func TestNominationFlow(t *testing.T) {
	fake := forum.NewFake()
	nominating := &forum.Comment{
		ID:        "n1",
		Author:    "Anna",
		BodyHTML:  bold("nominate bobby"),
		CreatedAt: 100,
	}
	status := &forum.Comment{
		ID:      "status",
		Author:  "countbot",
		Body:    "###nominate###",
		Replies: []*forum.Comment{nominating},
	}
	fake.Posts["https://forum.example/t/5"] = []*forum.Comment{status}

	seed := game.NewGameState(game.TypeNomination)
	seed.Alive.Add("anna", "bobby", "cleon")
	seed.NominationsURL = "https://forum.example/t/5"
	seed.CountingNominations = true

	outputDir := t.TempDir()
	cfg := config.Game{
		Name:            "plounge",
		GameType:        game.TypeNomination,
		OutputDir:       outputDir,
		OutputURL:       "https://example.com/mafia/plounge",
		AuthorizedUsers: []string{"themod"},
	}
	e := testEngine(t, cfg, fake, seed)

	t.Run("a nomination is recorded and acknowledged", func(t *testing.T) {
		runOnce(t, e)

		st := e.State()
		rec := st.Nominations["status"]
		require.NotNil(t, rec)
		nomination, ok := rec.CurrentNominations["bobby"]
		require.True(t, ok)
		require.Equal(t, "anna", nomination.By)
		require.Equal(t, int64(100), nomination.Timestamp)
		require.Len(t, fake.Replies, 1, "an acknowledgement reply was posted")
		require.Equal(t, "n1", fake.Replies[0].Parent)
		require.Equal(t, fake.Replies[0].ID, nomination.AckID)
		require.Len(t, rec.History, 1)
		require.Equal(t, game.ActionNominated, rec.History[0].Action)
	})

	t.Run("sub-votes under the acknowledgement are tallied", func(t *testing.T) {
		ack := nominating.Replies[len(nominating.Replies)-1]
		ack.Replies = append(ack.Replies,
			&forum.Comment{ID: "sv1", Author: "Cleon", BodyHTML: bold("yay"), CreatedAt: 200},
			&forum.Comment{ID: "sv2", Author: "Bobby", BodyHTML: bold("nay"), CreatedAt: 210},
			&forum.Comment{ID: "sv3", Author: "ghost", BodyHTML: bold("yay"), CreatedAt: 220},
		)
		runOnce(t, e)

		rec := e.State().Nominations["status"]
		votes := rec.CurrentVotes["bobby"]
		require.Len(t, votes, 2, "only living players' votes count")
		require.True(t, votes["cleon"].Approve)
		require.False(t, votes["bobby"].Approve)

		var voteEvents int
		for _, event := range rec.History {
			if event.Action == game.ActionVote {
				voteEvents++
			}
		}
		require.Equal(t, 2, voteEvents)
	})

	t.Run("an unchanged cycle appends no history", func(t *testing.T) {
		before := len(e.State().Nominations["status"].History)
		runOnce(t, e)
		require.Len(t, e.State().Nominations["status"].History, before,
			"replaying identical tallies must be a no-op")
	})

	t.Run("no duplicate acknowledgement on replay", func(t *testing.T) {
		runOnce(t, e)
		require.Len(t, fake.Replies, 1)
	})

	t.Run("status links the published history file", func(t *testing.T) {
		require.NotEmpty(t, fake.Edits)
		require.Contains(t, fake.Edits[len(fake.Edits)-1].Body,
			"https://example.com/mafia/plounge/status_history.txt")
		require.FileExists(t, filepath.Join(outputDir, "status_nominations.txt"))
		require.FileExists(t, filepath.Join(outputDir, "status_history.txt"))
	})
}

func TestGameTypeMismatchIsFatal(t *testing.T) {
	fake := forum.NewFake()
	cfg := config.Game{
		Name:     "classic",
		GameType: game.TypeTraditional,
	}
	cfg.StateFile = filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, store.New(cfg.StateFile).Save(game.NewGameState(game.TypeNomination)))

	fake.BotName = "countbot"
	e, err := New(cfg, "countbot", fake, false)
	require.NoError(t, err)
	require.Error(t, e.Run(context.Background(), time.Second, true),
		"a persisted game type mismatch must refuse to run")
}

func TestCommandsFeedTheCycle(t *testing.T) {
	fake := forum.NewFake()
	fake.Messages = []forum.Message{
		{ID: "m2", Sender: "themod", Subject: "classic: votes",
			Body: "https://forum.example/t/9 ", CreatedAt: 20},
		{ID: "m1", Sender: "themod", Subject: "classic: alive",
			Body: "alice brett carol", CreatedAt: 10},
	}
	fake.Posts["https://forum.example/t/9"] = []*forum.Comment{}

	cfg := config.Game{
		Name:            "classic",
		GameType:        game.TypeTraditional,
		AuthorizedUsers: []string{"themod"},
	}
	e := testEngine(t, cfg, fake, nil)
	runOnce(t, e)

	st := e.State()
	require.Equal(t, []string{"alice", "brett", "carol"}, st.Alive.Names())
	require.Equal(t, "https://forum.example/t/9", st.VotesURL)
	require.Equal(t, "m2", st.MostRecentCommandID)
	require.Len(t, fake.Posts["https://forum.example/t/9"], 1,
		"a fresh vote thread gets its status comment seeded")
}
