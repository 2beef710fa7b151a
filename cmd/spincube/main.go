package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-spincube/internal/app"
	"github.com/coreman2200/funtimes-spincube/internal/config"
	"github.com/coreman2200/funtimes-spincube/internal/cue"
	"github.com/coreman2200/funtimes-spincube/internal/diagnostics"
	"github.com/coreman2200/funtimes-spincube/internal/driver/fake"
	"github.com/coreman2200/funtimes-spincube/internal/driver/panel"
	"github.com/coreman2200/funtimes-spincube/internal/driver/term"
	"github.com/coreman2200/funtimes-spincube/internal/driver/window"
	"github.com/coreman2200/funtimes-spincube/internal/layout"
	"github.com/coreman2200/funtimes-spincube/internal/render"
)

func main() {
	if err := run(); err != nil {
		// the term log file is closed by now
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		log.Fatal().Err(err).Msg("spincube")
	}
}

func run() error {
	// ---- Flags (explicitly set flags win over config.yaml) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		backend    = flag.String("backend", config.Term, "backend: term | window | headless")
		tps        = flag.Int("tps", 60, "host ticks per second")
		holdMs     = flag.Int("hold-ms", 450, "terminal: synthesize a release after this many ms without repeat")
		firstHold  = flag.Int("first-hold-ms", 750, "terminal: release window before a key's first repeat (OS repeat delay)")
		logLevel   = flag.String("log-level", "info", "trace | debug | info | warn | error")
		logFile    = flag.String("log-file", "spincube.log", "log destination in term mode")
		script     = flag.String("script", "", "headless: input script, e.g. \"+shift +d | | -d -shift\"")
		ticks      = flag.Int("ticks", 0, "headless: run at least this many ticks")
		panelOn    = flag.Bool("panel", false, "mirror frames to an SPI LED matrix")
		cuesOn     = flag.Bool("cues", false, "play audio cues on animation start and end")
		saveConfig = flag.Bool("save-config", false, "write the effective config to -config and exit")
		panelTest  = flag.String("panel-test", "", "draw a wiring pattern on the panel and exit: index_sweep | rgb_channels | row_sweep")
	)
	flag.Parse()

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = config.Default()
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "tps":
			cfg.TPS = *tps
		case "hold-ms":
			cfg.HoldMs = *holdMs
		case "first-hold-ms":
			cfg.FirstHoldMs = *firstHold
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		case "script":
			cfg.Headless.Script = *script
		case "ticks":
			cfg.Headless.Ticks = *ticks
		case "panel":
			cfg.Panel.Enabled = *panelOn
		case "cues":
			cfg.Cues.Enabled = *cuesOn
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *saveConfig {
		return config.Save(*configPath, cfg)
	}

	// ---- Logging ----
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("backend", cfg.Backend).Int("tps", cfg.TPS).Msg("starting")

	if *panelTest != "" {
		return calibratePanel(ctx, cfg, *panelTest, logger)
	}

	// ---- Optional sinks ----
	var mirrors []render.Driver
	if cfg.Panel.Enabled {
		if p := openPanel(cfg, logger); p != nil {
			defer p.Close()
			mirrors = append(mirrors, p)
		}
	}
	var cues cue.Player = cue.Nop{}
	if cfg.Cues.Enabled {
		cues = cue.Open(cfg.Cues.SampleRate, logger)
	}

	// ---- Backend ----
	switch cfg.Backend {
	case config.Term:
		scr, err := term.New(term.Options{Hold: cfg.Hold(), FirstHold: cfg.FirstHold(), Log: logger})
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer scr.Close()
		core, err := app.InitCore(cfg, app.Deps{Source: scr, Primary: scr, Mirrors: mirrors, Cues: cues, Log: logger})
		if err != nil {
			return err
		}
		defer core.Close()
		scr.SetStatus(core.Status)
		scr.Start()
		return core.Run(ctx, clockwork.NewRealClock(), cfg.TPS)

	case config.Window:
		win := window.New(window.Options{
			Width: cfg.Window.Width, Height: cfg.Window.Height, Title: cfg.Window.Title,
			TPS: cfg.TPS, Log: logger,
		})
		core, err := app.InitCore(cfg, app.Deps{Source: win, Primary: win, Mirrors: mirrors, Cues: cues, Log: logger})
		if err != nil {
			return err
		}
		defer core.Close()
		win.SetStatus(core.Status)
		return win.Run(core.Step)

	default:
		src, err := fake.ParseScript(cfg.Headless.Script)
		if err != nil {
			return fmt.Errorf("headless script: %w", err)
		}
		src.PadTo(cfg.Headless.Ticks)
		src.CloseAtEnd = true
		drv := fake.NewDriver(cfg.Headless.Width, cfg.Headless.Height, logger)
		core, err := app.InitCore(cfg, app.Deps{Source: src, Primary: drv, Mirrors: mirrors, Cues: cues, Log: logger})
		if err != nil {
			return err
		}
		defer core.Close()
		return core.Run(ctx, clockwork.NewRealClock(), cfg.TPS)
	}
}

// setupLogging routes the global logger through a console writer. The
// terminal backend owns stdout, so it logs to a file instead.
func setupLogging(cfg *config.Config) (func(), error) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stderr
	closer := func() {}
	if cfg.Backend == config.Term {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		out = f
		closer = func() { _ = f.Close() }
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: out != os.Stderr}).
		With().Timestamp().Str("session", uuid.NewString()).Logger()
	return closer, nil
}

func openPanel(cfg *config.Config, logger zerolog.Logger) *panel.Panel {
	p, err := panel.Open(panel.Options{
		Grid: layout.Grid{
			W: cfg.Panel.Width, H: cfg.Panel.Height, Serpentine: cfg.Panel.XFlipEveryRow,
		},
		Port:        cfg.Panel.SPIDev,
		MinInterval: time.Duration(cfg.Panel.MinIntervalMs) * time.Millisecond,
		Brightness:  cfg.Panel.Brightness,
		Log:         logger,
	})
	if err != nil {
		diagnostics.Emit(logger, diagnostics.Diagnostic{
			Severity:       diagnostics.Warn,
			Code:           diagnostics.CodePanelFallback,
			Summary:        "panel mirror disabled",
			Detail:         err.Error(),
			LikelyCauses:   []string{"SPI not enabled on this host", "insufficient permissions on /dev/spidev*"},
			SuggestedFixes: []string{"enable SPI (raspi-config)", "set panel.enabled: false"},
			Evidence:       map[string]any{"spi_dev": cfg.Panel.SPIDev},
		})
		return nil
	}
	// the console strip would draw over the tcell screen
	if !p.Hardware() && cfg.Backend == config.Term {
		_ = p.Close()
		diagnostics.Emit(logger, diagnostics.Diagnostic{
			Severity:       diagnostics.Info,
			Code:           diagnostics.CodePanelFallback,
			Summary:        "no SPI port; console strip skipped in term mode",
			SuggestedFixes: []string{"use -backend window or headless to see the strip"},
		})
		return nil
	}
	return p
}

func calibratePanel(ctx context.Context, cfg *config.Config, name string, logger zerolog.Logger) error {
	pattern, err := panel.ParsePattern(name)
	if err != nil {
		return err
	}
	p, err := panel.Open(panel.Options{
		Grid: layout.Grid{W: cfg.Panel.Width, H: cfg.Panel.Height, Serpentine: cfg.Panel.XFlipEveryRow},
		Port: cfg.Panel.SPIDev,
		Log:  logger,
	})
	if err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	defer p.Close()
	logger.Info().Str("pattern", name).Bool("hardware", p.Hardware()).Msg("panel calibration")
	return p.Calibrate(ctx, pattern, 150*time.Millisecond)
}
