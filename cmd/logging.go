package cmd

import (
	"github.com/achilleasa/kdtrace/log"
	"github.com/urfave/cli"
)

var logger = log.New("kdtrace")

// Set the log level from the global flags. An explicit --log-level overrides
// the -v and -vv shortcuts.
func setupLogging(ctx *cli.Context) error {
	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return nil
}
