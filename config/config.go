// Package config loads the multi-game configuration and bot credentials.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"votecount/game"
)

// Game configures one tracked game instance.
type Game struct {
	Name            string    `yaml:"name"`
	GameType        game.Type `yaml:"game_type"`
	Hammers         bool      `yaml:"hammers"`
	SecretVoteless  bool      `yaml:"secret_voteless"`
	OutputDir       string    `yaml:"output_dir"`
	OutputURL       string    `yaml:"output_url"`
	StateFile       string    `yaml:"state_file"`
	AuthorizedUsers []string  `yaml:"authorized_users"`
}

// Config is the full games file.
type Config struct {
	Games        []Game   `yaml:"games"`
	EnabledGames []string `yaml:"enabled_games"`
}

// Load reads and validates the games file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for _, g := range cfg.Games {
		if g.Name == "" {
			return nil, fmt.Errorf("config %s: game with empty name", path)
		}
		if !g.GameType.Valid() {
			return nil, fmt.Errorf("config %s: game %s has unknown game_type %q",
				path, g.Name, g.GameType)
		}
		if g.StateFile == "" {
			return nil, fmt.Errorf("config %s: game %s has no state_file", path, g.Name)
		}
	}
	return &cfg, nil
}

// Enabled returns the configured games that are switched on.
func (c *Config) Enabled() []Game {
	on := map[string]bool{}
	for _, name := range c.EnabledGames {
		on[strings.ToLower(name)] = true
	}
	var games []Game
	for _, g := range c.Games {
		if on[strings.ToLower(g.Name)] {
			games = append(games, g)
		}
	}
	return games
}

// Credentials identify the bot against the platform.
type Credentials struct {
	Username string
	BaseURL  string
	Token    string
}

// LoadCredentials reads credentials from the environment, picking up a .env
// file first when one exists.
func LoadCredentials() (Credentials, error) {
	_ = godotenv.Load()

	creds := Credentials{
		Username: os.Getenv("VOTEBOT_USERNAME"),
		BaseURL:  os.Getenv("VOTEBOT_API_URL"),
		Token:    os.Getenv("VOTEBOT_API_TOKEN"),
	}
	if creds.Username == "" {
		return creds, fmt.Errorf("VOTEBOT_USERNAME is not set")
	}
	if creds.BaseURL == "" {
		return creds, fmt.Errorf("VOTEBOT_API_URL is not set")
	}
	return creds, nil
}
