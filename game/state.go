package game

import (
	"golang.org/x/exp/maps"
)

// Type selects the rule set a game runs under.
type Type string

const (
	// TypeNomination games put players up for trial through nominated
	// yay/nay sub-votes.
	TypeNomination Type = "nomination"
	// TypeTraditional games vote directly on a target until a majority
	// hammer falls.
	TypeTraditional Type = "traditional"
)

// Valid reports whether t names a known game type.
func (t Type) Valid() bool {
	return t == TypeNomination || t == TypeTraditional
}

type Phase int

const (
	SetupPhase Phase = iota
	NominationsOpenPhase
	NominationsClosedPhase
	VotingOpenPhase
	VotingClosedPhase
	ConcludedPhase
)

// DefaultMaxTrials caps how many nominees may proceed to trial at once.
const DefaultMaxTrials = 5

// GameState is the single persisted aggregate for one game instance. It is
// mutated once per poll cycle, always on a deep copy of the previous state,
// and committed only after the whole cycle succeeds.
//
// Timestamps are unix seconds; zero means unset. A zero VoteThreshold means
// the majority threshold is computed from the rosters.
type GameState struct {
	GameType Type `json:"game_type"`

	Alive    Roster `json:"alive_players"`
	Dead     Roster `json:"dead_players"`
	Voteless Roster `json:"voteless_players"`

	NominationsURL string `json:"nominations_url,omitempty"`
	VotesURL       string `json:"votes_url,omitempty"`

	NominatedPlayers []string `json:"nominated_players,omitempty"`

	NominationsEndedAt int64 `json:"nominations_ended_at,omitempty"`
	VotesEndedAt       int64 `json:"votes_ended_at,omitempty"`

	CountingNominations bool `json:"counting_nominations,omitempty"`
	CountingVotes       bool `json:"counting_votes,omitempty"`

	VoteThreshold int `json:"vote_threshold,omitempty"`
	MaxTrials     int `json:"max_trials,omitempty"`

	MostRecentCommandID string `json:"most_recent_command_id,omitempty"`

	NameCase map[string]string `json:"name_case_cache,omitempty"`

	Nominations map[string]*NominationRecord `json:"nominations,omitempty"`
	Votes       map[string]*VoteRecord       `json:"votes,omitempty"`
}

// NewGameState initializes an empty state for the given game type.
func NewGameState(gameType Type) *GameState {
	return &GameState{
		GameType:    gameType,
		Alive:       Roster{},
		Dead:        Roster{},
		Voteless:    Roster{},
		MaxTrials:   DefaultMaxTrials,
		NameCase:    map[string]string{},
		Nominations: map[string]*NominationRecord{},
		Votes:       map[string]*VoteRecord{},
	}
}

// Copy returns a deep copy. The original may be kept as the last-committed
// version while the copy is mutated through a cycle.
func (gs *GameState) Copy() *GameState {
	nominations := make(map[string]*NominationRecord, len(gs.Nominations))
	for id, rec := range gs.Nominations {
		nominations[id] = rec.Copy()
	}
	votes := make(map[string]*VoteRecord, len(gs.Votes))
	for id, rec := range gs.Votes {
		votes[id] = rec.Copy()
	}
	nominated := make([]string, len(gs.NominatedPlayers))
	copy(nominated, gs.NominatedPlayers)

	return &GameState{
		GameType:            gs.GameType,
		Alive:               gs.Alive.Copy(),
		Dead:                gs.Dead.Copy(),
		Voteless:            gs.Voteless.Copy(),
		NominationsURL:      gs.NominationsURL,
		VotesURL:            gs.VotesURL,
		NominatedPlayers:    nominated,
		NominationsEndedAt:  gs.NominationsEndedAt,
		VotesEndedAt:        gs.VotesEndedAt,
		CountingNominations: gs.CountingNominations,
		CountingVotes:       gs.CountingVotes,
		VoteThreshold:       gs.VoteThreshold,
		MaxTrials:           gs.MaxTrials,
		MostRecentCommandID: gs.MostRecentCommandID,
		NameCase:            maps.Clone(gs.NameCase),
		Nominations:         nominations,
		Votes:               votes,
	}
}

// Reset discards rosters and phase state. The game identity (type) and the
// command cursor survive so old commands are not replayed into the fresh
// state.
func (gs *GameState) Reset() {
	cursor := gs.MostRecentCommandID
	*gs = *NewGameState(gs.GameType)
	gs.MostRecentCommandID = cursor
}

// Phase is inferred from the presence of thread URLs and end timestamps
// rather than stored explicitly.
func (gs *GameState) Phase() Phase {
	switch {
	case gs.VotesEndedAt != 0:
		if gs.CountingVotes {
			return VotingClosedPhase
		}
		return ConcludedPhase
	case gs.VotesURL != "":
		return VotingOpenPhase
	case gs.NominationsEndedAt != 0:
		return NominationsClosedPhase
	case gs.NominationsURL != "":
		return NominationsOpenPhase
	default:
		return SetupPhase
	}
}

// EffectiveThreshold is the vote count that ends voting: the explicit
// threshold when set, otherwise a majority of the voting-eligible players.
func (gs *GameState) EffectiveThreshold() int {
	if gs.VoteThreshold > 0 {
		return gs.VoteThreshold
	}
	return (gs.Alive.Len()-gs.Voteless.Len())/2 + 1
}

// RepairRosters restores the roster invariants after command folding:
// alive and dead are disjoint, and voteless is a subset of alive.
func (gs *GameState) RepairRosters() {
	gs.Voteless.Remove(gs.Dead.Names()...)
	gs.Alive.Remove(gs.Dead.Names()...)
	for _, name := range gs.Voteless.Names() {
		if !gs.Alive.Has(name) {
			gs.Voteless.Remove(name)
		}
	}
}

// NominationRecordFor returns the record for a nominations post, creating
// it on first sight of the post. Inner maps that omitempty dropped from an
// earlier save are restored, so a record reloaded from disk while still
// empty stays writable.
func (gs *GameState) NominationRecordFor(postID string) *NominationRecord {
	if gs.Nominations == nil {
		gs.Nominations = map[string]*NominationRecord{}
	}
	rec := gs.Nominations[postID]
	if rec == nil {
		rec = NewNominationRecord()
		gs.Nominations[postID] = rec
	}
	if rec.CurrentNominations == nil {
		rec.CurrentNominations = map[string]Nomination{}
	}
	if rec.CurrentVotes == nil {
		rec.CurrentVotes = map[string]VoteTally{}
	}
	return rec
}

// VoteRecordFor returns the record for a votes post, creating it on first
// sight of the post.
func (gs *GameState) VoteRecordFor(postID string) *VoteRecord {
	if gs.Votes == nil {
		gs.Votes = map[string]*VoteRecord{}
	}
	rec := gs.Votes[postID]
	if rec == nil {
		rec = NewVoteRecord()
		gs.Votes[postID] = rec
	}
	if rec.CurrentVotes == nil {
		rec.CurrentVotes = VoteTally{}
	}
	return rec
}
