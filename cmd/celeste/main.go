package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/borogk/celeste"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newConverter(c *cli.Context) (*celeste.Converter, func() error, error) {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(c.App.ErrWriter)
	}

	if c.Int("depth") < 1 {
		return nil, nil, fmt.Errorf("--depth must be at least 1")
	}
	if c.Int("jobs") < 1 {
		return nil, nil, fmt.Errorf("--jobs must be at least 1")
	}

	options := celeste.Options{
		Jobs:        c.Int("jobs"),
		Depth:       c.Int("depth"),
		Colors:      c.Int("colors"),
		Incremental: c.Bool("incremental"),
	}

	closer := func() error { return nil }
	if file := c.String("manifest"); file != "" {
		m, err := celeste.OpenManifest(file)
		if err != nil {
			return nil, nil, err
		}
		options.Manifest = m
		closer = m.Close
	} else if options.Incremental {
		return nil, nil, fmt.Errorf("--incremental requires --manifest")
	}

	return celeste.New(logger, options), closer, nil
}

func convertCommand(name, usage string, run func(*celeste.Converter, string, string) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "FROM TO",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				_ = cli.ShowCommandHelp(c, c.Command.Name)
				return cli.Exit("expected FROM and TO directories", 1)
			}

			conv, closer, err := newConverter(c)
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer closer()

			if err := run(conv, c.Args().Get(0), c.Args().Get(1)); err != nil {
				return cli.Exit(err, 1)
			}

			return nil
		},
	}
}

func formatCommands() []*cli.Command {
	var commands []*cli.Command
	for _, f := range celeste.Formats {
		f := f
		commands = append(commands,
			convertCommand("data2"+f.Name, fmt.Sprintf("Convert a directory of DATA files to %s", f), func(conv *celeste.Converter, from, to string) error {
				return conv.DataToImages(from, to, f)
			}),
			convertCommand(f.Name+"2data", fmt.Sprintf("Convert a directory of %s files to DATA", f), func(conv *celeste.Converter, from, to string) error {
				return conv.ImagesToData(from, to, f)
			}),
		)
	}
	return commands
}

func history(c *cli.Context) error {
	file := c.String("manifest")
	if file == "" {
		return cli.Exit("no manifest given", 1)
	}

	m, err := celeste.OpenManifest(file)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer m.Close()

	entries, err := m.Entries()
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, e := range entries {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%s\n", e.SHA1, e.Config, e.Source, e.Destination)
	}

	return nil
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "celeste"
	app.Usage = "Celeste DATA graphics converter"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:    "manifest",
			EnvVars: []string{"CELESTE_MANIFEST"},
			Usage:   "record conversions in the SQLite database `FILE`",
		},
		&cli.BoolFlag{
			Name:  "incremental",
			Usage: "skip files unchanged since the manifest recorded them",
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Value:   1,
			Usage:   "number of files to convert at once, at least 1",
		},
		&cli.IntFlag{
			Name:  "depth",
			Value: 32,
			Usage: "maximum directory depth to scan, at least 1",
		},
		&cli.IntFlag{
			Name:  "colors",
			Usage: "reduce exported images to at most `N` colors",
		},
	}

	app.Commands = append(formatCommands(), &cli.Command{
		Name:   "history",
		Usage:  "List the conversions recorded in the manifest",
		Action: history,
	})

	app.Action = func(c *cli.Context) error {
		if c.NArg() > 0 {
			return cli.Exit(fmt.Sprintf("Unrecognised command %s", c.Args().First()), 1)
		}
		_ = cli.ShowAppHelp(c)
		return cli.Exit("", 1)
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
