package game

import "golang.org/x/exp/maps"

// Vote is one caster's current vote. In nomination games the vote is a
// yay/nay on Target; in traditional games Choice names the player (or
// "no lynch") the caster wants lynched and Target is empty.
type Vote struct {
	Target    string `json:"target,omitempty"`
	Approve   bool   `json:"approve,omitempty"`
	Choice    string `json:"choice,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// SameValue reports whether two votes agree on everything except when they
// were cast. A re-edit that keeps the same value must not disturb the
// recorded timestamp.
func (v Vote) SameValue(o Vote) bool {
	return v.Target == o.Target && v.Approve == o.Approve && v.Choice == o.Choice
}

// VoteTally maps a lower-cased voter name to their single current vote.
type VoteTally map[string]Vote

func (t VoteTally) Copy() VoteTally {
	return maps.Clone(t)
}

// History event actions. History is append-only: entries are never mutated
// or removed once written.
const (
	ActionNominated = "nominated"
	ActionVote      = "vote"
	ActionUnvote    = "unvote"
)

type HistoryEvent struct {
	Action  string `json:"action"`
	By      string `json:"by"`
	Target  string `json:"target,omitempty"`
	Approve bool   `json:"approve,omitempty"`
	Choice  string `json:"choice,omitempty"`
	Time    int64  `json:"time"`
}

// Nomination records who proposed a nominee and the acknowledgement comment
// under which the yay/nay sub-votes are collected.
type Nomination struct {
	By        string `json:"by"`
	Target    string `json:"target"`
	AckID     string `json:"ack_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NominationRecord tracks one nominations thread: the open nominations, the
// per-nominee sub-vote tallies and the event history.
type NominationRecord struct {
	Deadline           int64                 `json:"deadline,omitempty"`
	CurrentNominations map[string]Nomination `json:"current_nominations,omitempty"`
	CurrentVotes       map[string]VoteTally  `json:"current_votes,omitempty"`
	History            []HistoryEvent        `json:"history,omitempty"`
}

func NewNominationRecord() *NominationRecord {
	return &NominationRecord{
		CurrentNominations: map[string]Nomination{},
		CurrentVotes:       map[string]VoteTally{},
	}
}

// Tally returns the sub-vote tally for a nominee, creating it if absent.
func (r *NominationRecord) Tally(nominee string) VoteTally {
	if r.CurrentVotes == nil {
		r.CurrentVotes = map[string]VoteTally{}
	}
	if r.CurrentVotes[nominee] == nil {
		r.CurrentVotes[nominee] = VoteTally{}
	}
	return r.CurrentVotes[nominee]
}

func (r *NominationRecord) Copy() *NominationRecord {
	if r == nil {
		return nil
	}
	votes := make(map[string]VoteTally, len(r.CurrentVotes))
	for nominee, tally := range r.CurrentVotes {
		votes[nominee] = tally.Copy()
	}
	history := make([]HistoryEvent, len(r.History))
	copy(history, r.History)
	return &NominationRecord{
		Deadline:           r.Deadline,
		CurrentNominations: maps.Clone(r.CurrentNominations),
		CurrentVotes:       votes,
		History:            history,
	}
}

// VoteRecord tracks one direct-vote thread.
type VoteRecord struct {
	CurrentVotes VoteTally      `json:"current_votes,omitempty"`
	History      []HistoryEvent `json:"history,omitempty"`
}

func NewVoteRecord() *VoteRecord {
	return &VoteRecord{CurrentVotes: VoteTally{}}
}

func (r *VoteRecord) Copy() *VoteRecord {
	if r == nil {
		return nil
	}
	history := make([]HistoryEvent, len(r.History))
	copy(history, r.History)
	return &VoteRecord{
		CurrentVotes: r.CurrentVotes.Copy(),
		History:      history,
	}
}
