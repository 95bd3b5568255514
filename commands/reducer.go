// Package commands folds the moderator command stream into game state.
package commands

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"votecount/forum"
	"votecount/game"
)

// Reducer applies moderator commands addressed to one game. Only messages
// from the authorized sender allow-list are applied; everything else is
// skipped without effect.
type Reducer struct {
	gameName   string
	authorized map[string]bool
}

func NewReducer(gameName string, authorized []string) *Reducer {
	allow := map[string]bool{}
	for _, user := range authorized {
		allow[strings.ToLower(user)] = true
	}
	return &Reducer{gameName: strings.ToLower(gameName), authorized: allow}
}

// Apply folds the unprocessed commands from inbox (newest first, as the
// platform delivers it) into a copy of prior and returns the new state.
//
// The scan walks newest to oldest to find the boundary: the previously
// recorded cursor or a reset command, whichever comes first. Commands are
// then applied oldest to newest so ordering is correct; for the one-shot
// commands the first occurrence in a cycle wins.
func (r *Reducer) Apply(prior *game.GameState, inbox []forum.Message) *game.GameState {
	st := prior.Copy()

	var batch []forum.Message
	cursor := ""
	for _, msg := range inbox {
		gameName, command, ok := splitSubject(msg.Subject)
		if !ok {
			continue
		}
		if gameName != r.gameName && gameName != "*" {
			continue
		}
		if msg.ID == st.MostRecentCommandID {
			break
		}
		if cursor == "" {
			cursor = msg.ID
		}
		if !r.authorized[strings.ToLower(msg.Sender)] {
			continue
		}
		batch = append(batch, msg)
		if command == "reset" {
			break
		}
	}

	haveNominations := false
	haveVotes := false
	for i := len(batch) - 1; i >= 0; i-- {
		msg := batch[i]
		_, command, _ := splitSubject(msg.Subject)
		log.Debug().Str("game", r.gameName).Msgf("command: %s", command)

		switch command {
		case "end nominations":
			if !haveNominations {
				log.Info().Msg("command: end nominations")
				st.NominationsEndedAt = msg.CreatedAt
				haveNominations = true
			}
		case "end votes":
			if !haveVotes {
				log.Info().Msg("command: end votes")
				st.VotesEndedAt = msg.CreatedAt
				haveVotes = true
			}
		case "nominations":
			if !haveNominations {
				log.Info().Msg("command: new nominations thread")
				st.NominationsURL = strings.TrimSpace(msg.Body)
				st.NominationsEndedAt = 0
				st.CountingNominations = true
				haveNominations = true
			}
		case "votes":
			if !haveVotes {
				log.Info().Msg("command: new votes thread")
				fields := strings.Fields(msg.Body)
				if len(fields) == 0 {
					log.Warn().Msg("votes command without a thread URL")
					continue
				}
				st.VotesURL = fields[0]
				st.NominatedPlayers = lowered(fields[1:])
				st.VotesEndedAt = 0
				st.VoteThreshold = 0
				st.CountingVotes = true
				haveVotes = true
			}
		case "alive":
			log.Info().Msg("command: alive players")
			st.Alive.Add(playerTokens(msg.Body)...)
		case "dead":
			log.Info().Msg("command: dead players")
			players := playerTokens(msg.Body)
			st.Alive.Remove(players...)
			st.Dead.Add(players...)
		case "gone":
			log.Info().Msg("command: gone players")
			players := playerTokens(msg.Body)
			st.Alive.Remove(players...)
			st.Dead.Remove(players...)
			st.Voteless.Remove(players...)
		case "voteless":
			log.Info().Msg("command: voteless players")
			st.Voteless.Add(playerTokens(msg.Body)...)
		case "voteful":
			log.Info().Msg("command: voteful players")
			st.Voteless.Remove(playerTokens(msg.Body)...)
		case "max nominations":
			n, err := strconv.Atoi(strings.TrimSpace(msg.Body))
			if err != nil {
				log.Warn().Msgf("invalid value for max nominations: %q", msg.Body)
				continue
			}
			st.MaxTrials = n
		case "vote threshold":
			log.Info().Msg("command: new vote threshold")
			n, err := strconv.Atoi(strings.TrimSpace(msg.Body))
			if err != nil {
				log.Warn().Msgf("invalid value for vote threshold: %q", msg.Body)
				continue
			}
			st.VoteThreshold = n
		case "reset":
			log.Warn().Msg("command: reset")
			st.Reset()
		default:
			log.Warn().Msgf("unknown command %q", command)
		}
	}

	st.RepairRosters()
	if cursor != "" {
		st.MostRecentCommandID = cursor
	}
	return st
}

// splitSubject parses "game: command" subject lines.
func splitSubject(subject string) (gameName, command string, ok bool) {
	gameName, command, found := strings.Cut(subject, ":")
	if !found {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(gameName)),
		strings.ToLower(strings.TrimSpace(command)), true
}

// playerTokens splits a command body into lower-cased player identifiers.
// Short tokens are filler words, not names.
func playerTokens(body string) []string {
	var players []string
	for _, token := range strings.Fields(body) {
		if len(token) > 3 {
			players = append(players, strings.ToLower(token))
		}
	}
	return players
}

func lowered(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}
