// Command taskctl performs administrative tasks against the taskkeeper
// database: applying schema migrations and creating accounts.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := newApp(os.Stdin, os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("taskctl failed")
		os.Exit(1)
	}
}
