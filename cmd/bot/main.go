package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/conquestlab/landgrab/internal/bot"
)

func main() {
	url := flag.String("url", "http://localhost:8010", "server base URL")
	game := flag.String("game", "", "game ID to join (empty creates a new game)")
	seats := flag.Int("seats", 2, "number of bot seats to drive")
	playstyles := flag.String("playstyles", "", "comma-separated playstyles, one per seat (aggressive, defensive, expansionist, economic, opportunist, neural); empty entries draw a personality at random")
	model := flag.String("model", "", "path to an ONNX value model for the neural playstyle")
	seed := flag.Int64("seed", 0, "seed for bot decisions (0 uses the clock)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *model != "" {
		bot.ModelPath = *model
	}
	if *seed != 0 {
		bot.SeedBotRng(*seed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(*url, *game, seatStyles(*playstyles, *seats))
	if err := orch.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	log.Info().Msg("Bot game completed successfully")
}

// seatStyles builds one playstyle entry per seat. An explicit
// -playstyles list wins over -seats; empty entries stay empty so the
// engine draws a personality when the seat first acts.
func seatStyles(list string, seats int) []string {
	if list != "" {
		parts := strings.Split(list, ",")
		styles := make([]string, len(parts))
		for i, p := range parts {
			styles[i] = strings.TrimSpace(p)
		}
		return styles
	}
	if seats < 1 {
		seats = 1
	}
	return make([]string, seats)
}
