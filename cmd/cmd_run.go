package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/nowplaying/cmd/common"
	"github.com/gigurra/nowplaying/cmd/config"
	"github.com/gigurra/nowplaying/cmd/monitor"
	"github.com/gigurra/nowplaying/cmd/notify"
	"github.com/gigurra/nowplaying/cmd/source"
	"github.com/gigurra/nowplaying/cmd/statusline"
	"github.com/gigurra/nowplaying/cmd/supervisor"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	modeAuto = "auto"
	modeLine = "line"
	modeTUI  = "tui"
)

type RunParams struct {
	Config  string `short:"c" optional:"true" help:"Path to the config file (default ~/.nowplaying/config.json)."`
	Mode    string `short:"m" help:"Output mode: line prints one label per change, tui shows a live view, auto picks tui on a terminal." default:"auto" alts:"auto,line,tui"`
	Source  string `short:"s" optional:"true" help:"Player source, overrides the config (auto, applescript, mpris)." alts:"auto,applescript,mpris"`
	Notify  bool   `short:"n" optional:"true" help:"Show a desktop notification when a new track starts."`
	Verbose bool   `short:"v" optional:"true" help:"Enable debug logging."`
}

func RunCmd() *cobra.Command {
	return boa.CmdT[RunParams]{
		Use:   "run",
		Short: "Show what the player is playing until interrupted",
		Long: `Follow the media player and show the current track.

In line mode every change is printed as one line on stdout, which suits status bars
that read a command's output (tmux, polybar, i3blocks). In tui mode a live view is
shown until q is pressed. The monitor is started and stopped as the player launches
and quits. Changes to the config file's symbols and max length apply immediately.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *RunParams, cmd *cobra.Command, args []string) {
			if err := runRun(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "run: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runRun(params *RunParams, stdout *os.File) error {
	mode := resolveMode(params.Mode, term.IsTerminal(int(stdout.Fd())))
	common.SetupLogging(params.Verbose, mode != modeTUI)

	cfg, err := loadConfig(params.Config, params.Source)
	if err != nil {
		return err
	}
	if params.Notify {
		if cfg.Notifications == nil {
			cfg.Notifications = config.DefaultConfig().Notifications
		}
		cfg.Notifications.Enabled = true
	}

	src, err := source.New(cfg)
	if err != nil {
		return err
	}
	slog.Info("starting", "source", src.Name(), "process", cfg.ProcessName, "mode", mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := statusline.NewRenderer(cfg)
	app := &runner{
		cfg:      cfg,
		src:      src,
		liveness: source.NewProcessChecker(cfg.ProcessName),
		renderer: renderer,
	}

	switch mode {
	case modeTUI:
		return app.runTUI(ctx, params.Config)
	default:
		return app.runLines(ctx, params.Config, stdout)
	}
}

func resolveMode(mode string, isTerminal bool) string {
	if mode != modeAuto {
		return mode
	}
	if isTerminal {
		return modeTUI
	}
	return modeLine
}

// loadConfig loads the config file and applies a source override.
func loadConfig(path, sourceOverride string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if sourceOverride != "" {
		cfg.Source = sourceOverride
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

type runner struct {
	cfg      *config.Config
	src      source.Source
	liveness *source.ProcessChecker
	renderer *statusline.Renderer
}

// supervise runs the monitor under a supervisor until ctx is done.
func (r *runner) supervise(ctx context.Context, sink monitor.Sink) {
	sinks := []monitor.Sink{sink}
	if r.cfg.Notifications != nil && r.cfg.Notifications.Enabled {
		sinks = append(sinks, notify.New(r.cfg.NotificationCooldown()))
	}

	mon := monitor.New(r.src, r.liveness, monitor.Multi(sinks...), monitor.Options{
		PlayingInterval: r.cfg.PlayingPollInterval(),
		PausedInterval:  r.cfg.PausedPollInterval(),
	})
	supervisor.New(r.liveness, mon, r.cfg.LivenessCheckInterval(), r.cfg.SourceInitDelay()).Run(ctx)
}

// watchConfig applies config reloads to the renderer and calls refresh afterwards.
func (r *runner) watchConfig(ctx context.Context, path string, refresh func()) {
	err := config.Watch(ctx, path, func(cfg *config.Config) {
		r.renderer.Apply(cfg)
		refresh()
	})
	if err != nil {
		slog.Debug("config hot reload disabled", "error", err)
	}
}

func (r *runner) runLines(ctx context.Context, configPath string, out io.Writer) error {
	sink := statusline.NewLineSink(out, r.renderer)
	sink.SourceNotRunning()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.watchConfig(ctx, configPath, sink.Refresh)
	}()

	r.supervise(ctx, sink)
	wg.Wait()
	return nil
}
