package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/hpungsan/termcaps/internal/capdata"
	"github.com/hpungsan/termcaps/internal/capinfo"
	"github.com/hpungsan/termcaps/internal/cmd"
	"github.com/hpungsan/termcaps/internal/config"
	"github.com/hpungsan/termcaps/internal/db"
	"github.com/hpungsan/termcaps/internal/errors"
	"github.com/hpungsan/termcaps/internal/mcp"
	"github.com/hpungsan/termcaps/internal/verify"
)

const builtinSource = "builtin"

// appState is what the commands share once global flags are applied. The
// dataset and snapshot store are opened on first use.
type appState struct {
	getenv func(string) string
	cfg    *config.Config
	logger *slog.Logger

	capdb  *capinfo.Database
	source string
	store  *sql.DB
}

// newCLIApp creates the CLI application with all commands. getenv is
// os.Getenv outside of tests.
func newCLIApp(getenv func(string) string) *cli.App {
	st := &appState{getenv: getenv}

	app := &cli.App{
		Name:      "termcaps",
		Usage:     "Terminal capability database and escape sequence resolver",
		Version:   Version,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file (JSON, or TOML with a .toml extension)"},
			&cli.StringFlag{Name: "dataset", Aliases: []string{"d"}, Usage: "YAML capability dataset (default: built-in)"},
			&cli.StringFlag{Name: "snapshot", Aliases: []string{"s"}, Usage: "SQLite snapshot store to read the newest build from"},
			&cli.StringFlag{Name: "terminal", Aliases: []string{"t"}, Usage: "Terminal compact name or $TERM value (default: $TERM)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug|info|warn|error"},
		},
		Before: st.setup,
		After:  st.close,
		Commands: []*cli.Command{
			lookupCmd(st),
			resolveCmd(st),
			listCmd(st),
			verifyCmd(st),
			exportCmd(st),
			compileCmd(st),
			snapshotsCmd(st),
			serveCmd(st),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// setup layers configuration: file, then environment, then flags.
func (st *appState) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return outputError(errors.NewInvalidRequest(err.Error()))
	}
	cfg = config.ApplyEnv(cfg, st.getenv)
	cfg = config.Merge(cfg, &config.Config{
		Dataset:  c.String("dataset"),
		Snapshot: c.String("snapshot"),
		Terminal: c.String("terminal"),
		LogLevel: c.String("log-level"),
	})

	st.cfg = cfg
	st.logger = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

func (st *appState) close(_ *cli.Context) error {
	if st.store != nil {
		err := st.store.Close()
		st.store = nil
		return err
	}
	return nil
}

// database returns the dataset the lookup commands answer from: an explicit
// dataset file, else the newest snapshot build, else the built-in dataset.
func (st *appState) database() (*capinfo.Database, error) {
	if st.capdb != nil {
		return st.capdb, nil
	}
	if st.cfg.Dataset == "" && st.cfg.Snapshot != "" {
		store, err := st.openStore(st.cfg.Snapshot)
		if err != nil {
			return nil, err
		}
		capdb, b, err := db.LoadSnapshot(store, "")
		if err != nil {
			return nil, err
		}
		st.capdb, st.source = capdb, "snapshot:"+b.ID
	} else {
		capdb, source, err := st.loadDataset()
		if err != nil {
			return nil, err
		}
		st.capdb, st.source = capdb, source
	}
	st.logger.Debug("dataset loaded", "source", st.source, "profiles", st.capdb.Len())
	return st.capdb, nil
}

// loadDataset reads the configured dataset file, or the built-in one.
func (st *appState) loadDataset() (*capinfo.Database, string, error) {
	if st.cfg.Dataset == "" {
		capdb, err := capdata.Load()
		return capdb, builtinSource, err
	}
	capdb, err := capinfo.LoadFile(st.cfg.Dataset)
	if err != nil {
		return nil, "", err
	}
	return capdb, st.cfg.Dataset, nil
}

func (st *appState) openStore(path string) (*sql.DB, error) {
	if st.store != nil {
		return st.store, nil
	}
	store, err := db.Init(path)
	if err != nil {
		return nil, err
	}
	db.ConfigurePool(store, st.cfg)
	st.store = store
	st.logger.Debug("snapshot store opened", "path", path)
	return store, nil
}

// lookupOutput is the lookup command's JSON output.
type lookupOutput struct {
	Identifier string          `json:"identifier"`
	Match      capinfo.Match   `json:"match"`
	Profile    capinfo.Profile `json:"profile"`
}

// lookupCmd creates the lookup command.
func lookupCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Show the capability profile for a terminal",
		ArgsUsage: "[identifier]",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				id = st.cfg.TerminalIdentifier(st.getenv)
			}
			if id == "" {
				return outputError(errors.NewInvalidRequest("no identifier given and $TERM is not set"))
			}

			capdb, err := st.database()
			if err != nil {
				return outputError(err)
			}
			p, match := capdb.Lookup(id)
			return outputJSON(c.App.Writer, lookupOutput{Identifier: id, Match: match, Profile: p})
		},
	}
}

// resolveCmd creates the resolve command.
func resolveCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Print the escape sequence for commands on the selected terminal",
		ArgsUsage: "<command>...",
		Description: `Each argument is one command, for example:

   termcaps resolve set-bold "set-color fg #ff8800" "move-cursor up 3"

Output is escaped when stdout is a terminal and raw bytes otherwise.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Aliases: []string{"r"}, Usage: "Always write raw bytes"},
			&cli.BoolFlag{Name: "escape", Aliases: []string{"e"}, Usage: "Always write escaped text"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one command is required"))
			}
			if c.Bool("raw") && c.Bool("escape") {
				return outputError(errors.NewInvalidRequest("--raw and --escape are mutually exclusive"))
			}

			cmds, err := cmd.ParseAll(c.Args().Slice())
			if err != nil {
				return outputError(err)
			}
			capdb, err := st.database()
			if err != nil {
				return outputError(err)
			}

			id := st.cfg.TerminalIdentifier(st.getenv)
			p, match := capdb.Lookup(id)
			st.logger.Debug("terminal selected", "identifier", id, "terminal", p.Name.Compact, "match", match)

			out, err := cmd.ResolveAll(p, cmds...)
			if err != nil {
				return outputError(err)
			}

			w := c.App.Writer
			if c.Bool("raw") || (!c.Bool("escape") && !isTerminal(w)) {
				_, err = w.Write(out)
			} else {
				_, err = fmt.Fprintln(w, cmd.Escape(out))
			}
			return err
		},
	}
}

// listOutput is the list command's JSON output.
type listOutput struct {
	Groups []capinfo.TermGroup `json:"groups"`
}

// listCmd creates the list command.
func listCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List $TERM values, the terminals that set them, and their shared capabilities",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "term", Usage: "Only show this $TERM value"},
		},
		Action: func(c *cli.Context) error {
			capdb, err := st.database()
			if err != nil {
				return outputError(err)
			}

			out := listOutput{Groups: []capinfo.TermGroup{}}
			if t := c.String("term"); t != "" {
				g, ok := capdb.Group(t)
				if !ok {
					return outputError(errors.NewNotFound(t))
				}
				out.Groups = append(out.Groups, g)
				return outputJSON(c.App.Writer, out)
			}

			for _, t := range capdb.Terms() {
				g, _ := capdb.Group(t)
				out.Groups = append(out.Groups, g)
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

// verifyCmd creates the verify command.
func verifyCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check a capability dataset and list terminals by $TERM",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the report as JSON"},
		},
		Action: func(c *cli.Context) error {
			var r *verify.Report
			switch path := c.Args().First(); {
			case path != "":
				r = verify.File(path)
			case st.cfg.Dataset != "":
				r = verify.File(st.cfg.Dataset)
			default:
				r = verify.Data(builtinSource, capdata.Bytes())
			}

			var err error
			if c.Bool("json") {
				err = outputJSON(c.App.Writer, r)
			} else {
				err = r.Write(c.App.Writer)
			}
			if err != nil {
				return err
			}
			if !r.OK {
				st.logger.Debug("dataset invalid", "source", r.Source, "problems", len(r.Errors))
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// exportCmd creates the export command.
func exportCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the dataset in canonical YAML form",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (default: stdout)"},
		},
		Action: func(c *cli.Context) error {
			capdb, err := st.database()
			if err != nil {
				return outputError(err)
			}
			data, err := capinfo.Marshal(capdb)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			path := c.String("output")
			if path == "" {
				_, err = c.App.Writer.Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return outputError(errors.NewInternal(err))
			}
			st.logger.Info("dataset exported", "path", path, "profiles", capdb.Len())
			return nil
		},
	}
}

// compileOutput is the compile command's JSON output.
type compileOutput struct {
	Build   *db.Build `json:"build"`
	Created bool      `json:"created"`
}

// compileCmd creates the compile command.
func compileCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "compile",
		Usage: "Validate the dataset and store it as a build in the snapshot store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "Snapshot store path (default: --snapshot)"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("db")
			if path == "" {
				path = st.cfg.Snapshot
			}
			if path == "" {
				return outputError(errors.NewInvalidRequest("a snapshot store is required (--db or --snapshot)"))
			}

			capdb, source, err := st.loadDataset()
			if err != nil {
				return outputError(err)
			}
			store, err := st.openStore(path)
			if err != nil {
				return outputError(err)
			}
			unlock, err := db.LockStore(path)
			if err != nil {
				return outputError(err)
			}
			defer unlock()

			b, created, err := db.SaveSnapshot(store, capdb, source)
			if err != nil {
				return outputError(err)
			}
			st.logger.Info("dataset compiled", "build", b.ID, "created", created)
			return outputJSON(c.App.Writer, compileOutput{Build: b, Created: created})
		},
	}
}

// snapshotsCmd creates the snapshots command with its subcommands.
func snapshotsCmd(st *appState) *cli.Command {
	storeFor := func() (*sql.DB, error) {
		if st.cfg.Snapshot == "" {
			return nil, errors.NewInvalidRequest("--snapshot is required")
		}
		return st.openStore(st.cfg.Snapshot)
	}

	return &cli.Command{
		Name:  "snapshots",
		Usage: "Inspect builds in the snapshot store",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List builds, newest first",
				Action: func(c *cli.Context) error {
					store, err := storeFor()
					if err != nil {
						return outputError(err)
					}
					builds, err := db.ListBuilds(store)
					if err != nil {
						return outputError(err)
					}
					if builds == nil {
						builds = []db.Build{}
					}
					return outputJSON(c.App.Writer, builds)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a build",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("exactly one build id is required"))
					}
					store, err := storeFor()
					if err != nil {
						return outputError(err)
					}
					if err := db.DeleteBuild(store, c.Args().First()); err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, map[string]any{"deleted": c.Args().First()})
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			capdb, err := st.database()
			if err != nil {
				return outputError(err)
			}
			for _, name := range mcp.ValidateDisabledTools(st.cfg.DisabledTools) {
				st.logger.Warn("unknown tool in disabled_tools", "tool", name)
			}

			var store *sql.DB
			if st.cfg.Snapshot != "" {
				if store, err = st.openStore(st.cfg.Snapshot); err != nil {
					return outputError(err)
				}
			}

			st.logger.Info("serving MCP on stdio", "source", st.source, "profiles", capdb.Len())
			return mcp.Run(capdb, store, st.cfg, Version)
		},
	}
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	list := errors.Flatten(err)
	if len(list) == 0 {
		return nil
	}
	first := list[0]
	msg := fmt.Sprintf("[%s] %s", first.Code, first.Message)
	if len(list) > 1 {
		msg += fmt.Sprintf(" (and %d more; run 'termcaps verify' for the full report)", len(list)-1)
	}
	return cli.Exit(msg, 1)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
