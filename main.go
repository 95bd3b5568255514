package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"votecount/config"
	"votecount/engine"
	"votecount/forum"
)

func main() {
	configPath := flag.String("config", "games.yaml", "path to the games file")
	logLevel := flag.String("log-level", "info", "zerolog level (debug, info, warn, error)")
	oneshot := flag.Bool("oneshot", false, "run a single cycle per game and exit")
	updateDelay := flag.Int("update-delay", 3, "minutes between poll cycles")
	dryRun := flag.Bool("dry-run", false, "count votes but post nothing")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msgf("invalid log level %q", *logLevel)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	games := cfg.Enabled()
	if len(games) == 0 {
		log.Fatal().Msgf("no enabled games in %s", *configPath)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load credentials")
	}
	client := forum.NewHTTPClient(creds.BaseURL, creds.Token)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Duration(*updateDelay) * time.Minute
	group, ctx := errgroup.WithContext(ctx)
	for _, g := range games {
		e, err := engine.New(g, creds.Username, client, *dryRun)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build engine")
		}
		log.Info().Str("game", g.Name).Str("type", string(g.GameType)).Msg("tracking game")
		group.Go(func() error {
			return e.Run(ctx, interval, *oneshot)
		})
	}
	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("shutting down")
}
