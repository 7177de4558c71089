package main

import (
	"os"
	"runtime"

	"github.com/achilleasa/kdtrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "kdtrace"
	app.Usage = "build and benchmark ray tracing acceleration structures"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set the log level (debug, info, notice, warning, error); overrides -v and -vv",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build an accelerator and display its statistics",
			Description: `
Build an accelerator for the meshes in a wavefront obj file or, if no file is
specified, for a set of randomly placed boxes.

When an obj file is specified each mesh is indexed by its own accelerator and
a top-level accelerator indexes the meshes.`,
			ArgsUsage: "[scene.obj]",
			Flags:     cmd.AccelFlags,
			Action:    cmd.Build,
		},
		{
			Name:  "bench",
			Usage: "trace batches of random rays using a pool of tracers",
			Description: `
Build an accelerator and trace batches of random rays against it. Rays are split
across a pool of cpu tracers; the first batch is split evenly and subsequent
batches are split according to the measured tracer throughput.`,
			ArgsUsage: "[scene.obj]",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 100000,
					Usage: "number of rays per batch",
				},
				cli.IntFlag{
					Name:  "batches",
					Value: 4,
					Usage: "number of batches to trace",
				},
				cli.IntFlag{
					Name:  "tracers",
					Value: runtime.NumCPU(),
					Usage: "number of cpu tracers",
				},
				cli.BoolFlag{
					Name:  "occlusion",
					Usage: "run occlusion queries instead of closest hit queries",
				},
				cli.Float64Flag{
					Name:  "max-dist",
					Usage: "max distance for occlusion queries (0 = unlimited)",
				},
			}, cmd.AccelFlags...),
			Action: cmd.Bench,
		},
		{
			Name:  "verify",
			Usage: "compare accelerator results against the naive accelerator",
			Description: `
Trace random rays against the selected accelerator and the naive accelerator
and report any rays where the hit distances differ.`,
			ArgsUsage: "[scene.obj]",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 10000,
					Usage: "number of rays to verify",
				},
			}, cmd.AccelFlags...),
			Action: cmd.Verify,
		},
		{
			Name:      "preview",
			Usage:     "display the accelerator split planes",
			ArgsUsage: "[scene.obj]",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "depth",
					Value: 3,
					Usage: "max depth of displayed split planes",
				},
				cli.BoolFlag{
					Name:  "log",
					Usage: "emit all split planes as debug log entries (requires -vv)",
				},
			}, cmd.AccelFlags...),
			Action: cmd.Preview,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
