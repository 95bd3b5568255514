// Package store persists game state as one JSON document per game.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"votecount/game"
)

// Store reads and writes the state document at a fixed path.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state. A missing file is not an error: the game
// starts from an empty state. A persisted game type that does not match the
// configured one is fatal; refusing to run beats silently corrupting a
// differently-shaped state.
func (s *Store) Load(gameType game.Type) (*game.GameState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return game.NewGameState(gameType), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	st := game.NewGameState(gameType)
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", s.path, err)
	}
	if st.GameType != "" && st.GameType != gameType {
		return nil, fmt.Errorf("state file %s holds a %s game, configured as %s",
			s.path, st.GameType, gameType)
	}
	st.GameType = gameType
	return st, nil
}

// Save writes the state atomically: the document goes to a temp file in the
// same directory and is renamed over the old one, so a crash mid-write
// leaves the previous valid state in place.
func (s *Store) Save(st *game.GameState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("committing state file: %w", err)
	}
	return nil
}
