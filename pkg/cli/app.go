package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/nanotox/pkg/config"
	"github.com/mchmarny/nanotox/pkg/data"
	"github.com/mchmarny/nanotox/pkg/logging"
	"github.com/mchmarny/nanotox/pkg/score"
	"github.com/mchmarny/nanotox/pkg/toxicity"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "nanotox"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName  = "debug"
	homeFlagName   = "home"
	tableFlagName  = "table"
	dbFlagName     = "db"
	formatFlagName = "format"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	// out receives command results; logs go to stderr.
	out io.Writer = os.Stdout
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Home   string
	DSN    string
	Config *config.Config

	engine *score.Engine
	table  *toxicity.Table
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Toxicity score for composite nanoparticle devices",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  homeFlagName,
				Usage: "Directory holding config.yaml and the default table store (default: $HOME/.nanotox)",
			},
			&urfave.StringFlag{
				Name:  tableFlagName,
				Usage: "Table source: builtin, db, or path to a .csv/.yaml file (overrides config)",
			},
			&urfave.StringFlag{
				Name:  dbFlagName,
				Usage: "Table store DSN: SQLite file path or postgres:// URL (overrides config)",
			},
			&urfave.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*urfave.Command{
			newScoreCmd(),
			newBatchCmd(),
			newTableCmd(),
			newServerCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			home := cmd.String(homeFlagName)
			if home == "" {
				home = getHomeDir()
			}

			cfg, err := config.ReadOrCreate(home)
			if err != nil {
				return ctx, fmt.Errorf("reading config: %w", err)
			}

			level := cfg.LogLevel
			if cmd.Bool(debugFlagName) {
				level = "debug"
			}
			logging.SetDefaultCLILogger(level)

			switch f := cmd.String(formatFlagName); f {
			case formatJSON:
				outputFormat = formatJSON
			case formatYAML, "yml":
				outputFormat = formatYAML
			default:
				return ctx, fmt.Errorf("unsupported output format %q (expected %s or %s)", f, formatJSON, formatYAML)
			}

			if src := cmd.String(tableFlagName); src != "" {
				cfg.Table.Source = src
			}
			if dsn := cmd.String(dbFlagName); dsn != "" {
				cfg.Table.DSN = dsn
			}

			dsn := cfg.ResolveDSN(home)
			if dsn == "" {
				dsn = filepath.Join(home, data.DataFileName)
			}

			cmd.Metadata[appConfigKey] = &appConfig{
				Home:   home,
				DSN:    dsn,
				Config: cfg,
			}
			return ctx, nil
		},
	}
}

// getEngine loads the configured table on first use.
func (a *appConfig) getEngine() (*score.Engine, *toxicity.Table, error) {
	if a.engine != nil {
		return a.engine, a.table, nil
	}

	tbl, err := openTable(a.Config.Table.Source, a.DSN)
	if err != nil {
		return nil, nil, err
	}

	bands, err := score.NewBands(a.Config.Severity.Thresholds)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid severity config: %w", err)
	}

	engine, err := score.NewEngine(tbl, bands)
	if err != nil {
		return nil, nil, fmt.Errorf("creating scoring engine: %w", err)
	}

	slog.Debug("table loaded",
		"source", tbl.Source(),
		"elements", len(tbl.Elements()),
		"entries", tbl.Len())

	a.engine = engine
	a.table = tbl
	return engine, tbl, nil
}

func openTable(source, dsn string) (*toxicity.Table, error) {
	switch source {
	case config.SourceBuiltin:
		return toxicity.Builtin(), nil
	case config.SourceDB:
		if err := data.Init(dsn); err != nil {
			return nil, fmt.Errorf("initializing table store: %w", err)
		}
		db, err := data.GetDB(dsn)
		if err != nil {
			return nil, fmt.Errorf("opening table store: %w", err)
		}
		defer db.Close()
		return data.LoadTable(db, config.SourceDB)
	default:
		return toxicity.LoadFile(source)
	}
}

func getHomeDir() string {
	dir, _, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	return dir
}

func encode(v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(out).Encode(v)
	}
	e := json.NewEncoder(out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
