// Command analyze submits a position to a running sharpchess service and
// prints the evaluation panel.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"sharpchess/internal/client"
	"sharpchess/internal/logging"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	server := flag.String("server", envOr("SHARPCHESS_URL", "http://localhost:5000"), "analysis service base URL")
	fen := flag.String("fen", startFEN, "position to analyse")
	depth := flag.Int("depth", 0, "search depth (0 uses the service default)")
	lines := flag.Int("lines", 3, "number of best lines")
	timeout := flag.Duration("timeout", client.DefaultPollTimeout, "how long to poll each result")
	noEval := flag.Bool("no-eval", false, "skip the evaluation")
	noSharp := flag.Bool("no-sharpness", false, "skip the sharpness score")
	noLines := flag.Bool("no-lines", false, "skip the best lines")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()
	logging.Setup(*debug)
	log := logging.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*server, client.WithPollTimeout(*timeout), client.WithLogger(log))
	panel := client.Panel{FEN: *fen}

	if !*noEval {
		start := time.Now()
		if v, err := c.Evaluate(ctx, *fen, *depth); err != nil {
			log.Error().Err(err).Msg("evaluation")
		} else {
			panel.Evaluation = &v
			log.Debug().Dur("took", time.Since(start)).Msg("evaluation done")
		}
	}
	if !*noSharp {
		if v, err := c.Sharpness(ctx, *fen); err != nil {
			log.Error().Err(err).Msg("sharpness")
		} else {
			panel.Sharpness = &v
		}
	}
	if !*noLines {
		if v, err := c.BestLines(ctx, *fen, *lines, *depth); err != nil {
			log.Error().Err(err).Msg("best lines")
		} else {
			panel.BestLines = v
		}
	}

	if err := panel.Render(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("render")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
