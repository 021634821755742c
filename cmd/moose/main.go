package main

import (
	"context"
	"encoding/json"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bodgit/moose"
	"github.com/bodgit/moose/image"
	"github.com/bodgit/moose/server"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const defaultDB = "moose.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func openHerd(c *cli.Context) (*moose.Herd, *log.Logger, error) {
	logger := newLogger(c)
	h, err := moose.New(c.String("db"), logger)
	if err != nil {
		return nil, nil, err
	}
	return h, logger, nil
}

// Opens name for reading, with "-" or "" meaning stdin
func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return ioutil.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func importOptions(c *cli.Context) (moose.ImportOptions, error) {
	mode, err := moose.ParseDupeMode(c.String("dupe"))
	if err != nil {
		return moose.ImportOptions{}, err
	}
	return moose.ImportOptions{
		Workers: c.Int("workers"),
		Compat:  c.Bool("compat"),
		Dupe:    mode,
	}, nil
}

func importAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	opts, err := importOptions(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	h, _, err := openHerd(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer h.Close()

	f, err := openInput(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	n, skipped, err := h.Import(c.Context, f, opts)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Fprintf(os.Stderr, "imported %d moose, skipped %d\n", n, skipped)

	return nil
}

func convertAction(c *cli.Context) error {
	opts, err := importOptions(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	in, err := openInput(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer in.Close()

	meese, _, err := moose.ReadHerd(c.Context, in, newLogger(c), opts)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var out io.Writer = os.Stdout
	if name := c.Args().Get(1); name != "" && name != "-" {
		f, err := os.Create(name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer f.Close()
		out = f
	}

	if err := moose.WriteHerd(out, meese); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func renderAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	var fn func(*moose.Moose) ([]byte, error)
	switch c.String("format") {
	case "png":
		fn = (*moose.Moose).PNG
	case "irc":
		fn = (*moose.Moose).IRC
	case "ansi":
		fn = (*moose.Moose).ANSI
	default:
		return cli.NewExitError(fmt.Errorf("unknown format %q", c.String("format")), 1)
	}

	h, _, err := openHerd(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer h.Close()

	name := c.Args().First()
	m, _, err := h.Get(name)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if m == nil {
		return cli.NewExitError(fmt.Errorf("no such moose: %s", name), 1)
	}

	b, err := fn(m)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if _, err := os.Stdout.Write(b); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func png2mooseAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	f, err := openInput(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	src, _, err := stdimage.Decode(f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	switch fit := c.String("fit"); fit {
	case "":
	case "default":
		src = image.Fit(src, image.Default)
	case "hd":
		src = image.Fit(src, image.HD)
	default:
		return cli.NewExitError(fmt.Errorf("unknown size %q", fit), 1)
	}

	img, err := image.FromImage(src)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	name := c.String("name")
	if name == "" {
		base := filepath.Base(c.Args().First())
		name = base[:len(base)-len(filepath.Ext(base))]
	}

	m := &moose.Moose{
		Name:       name,
		Image:      img.Pixels(),
		Dimensions: img.Dimensions(),
		Created:    time.Now().UTC(),
		Author:     moose.Anonymous,
	}
	if err := m.Validate(); err != nil {
		return cli.NewExitError(err, 1)
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(m); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func serveAction(c *cli.Context) error {
	h, logger, err := openHerd(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.New(h, logger)
	if err := s.Run(ctx, c.String("listen"), c.String("dump"), c.Duration("dump-interval")); err != nil {
		return cli.NewExitError(err, 1)
	}

	// Leave a final dump behind on shutdown
	if dump := c.String("dump"); dump != "" {
		if err := h.Dump(dump); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "moose"
	app.Usage = "Moose pixel art storage and rendering utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"MOOSE_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	importFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "number of records decoded concurrently",
		},
		&cli.BoolFlag{
			Name:  "compat",
			Usage: "decode legacy images leniently",
		},
		&cli.StringFlag{
			Name:  "dupe",
			Value: "fail",
			Usage: "what to do with existing names: fail, ignore or update",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "import",
			Usage:     "Import a JSON dump of current or legacy moose",
			ArgsUsage: "FILE",
			Flags:     importFlags,
			Action:    importAction,
		},
		{
			Name:      "convert",
			Usage:     "Convert a JSON dump to the current format",
			ArgsUsage: "[IN] [OUT]",
			Flags:     importFlags,
			Action:    convertAction,
		},
		{
			Name:      "render",
			Usage:     "Render a moose to stdout",
			ArgsUsage: "NAME",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "format",
					Value: "irc",
					Usage: "output format: png, irc or ansi",
				},
			},
			Action: renderAction,
		},
		{
			Name:      "png2moose",
			Usage:     "Convert an image to a moose",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Usage: "name of the moose, defaults to the file name",
				},
				&cli.StringFlag{
					Name:  "fit",
					Usage: "scale the image to default or hd first",
				},
			},
			Action: png2mooseAction,
		},
		{
			Name:  "serve",
			Usage: "Serve the herd over HTTP",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "listen",
					EnvVars: []string{"MOOSE_LISTEN"},
					Value:   server.DefaultListen,
					Usage:   "address to listen on",
				},
				&cli.StringFlag{
					Name:    "dump",
					EnvVars: []string{"MOOSE_DUMP"},
					Usage:   "periodically dump the herd to this file",
				},
				&cli.DurationFlag{
					Name:  "dump-interval",
					Value: moose.DefaultDumpInterval,
					Usage: "how often to dump the herd",
				},
			},
			Action: serveAction,
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
