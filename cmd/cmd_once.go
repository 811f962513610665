package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/atotto/clipboard"
	"github.com/gigurra/nowplaying/cmd/common"
	"github.com/gigurra/nowplaying/cmd/monitor"
	"github.com/gigurra/nowplaying/cmd/source"
	"github.com/gigurra/nowplaying/cmd/statusline"
	"github.com/spf13/cobra"
)

var clipboardWriteAll = clipboard.WriteAll

type OnceParams struct {
	Config  string `short:"c" optional:"true" help:"Path to the config file (default ~/.nowplaying/config.json)."`
	Source  string `short:"s" optional:"true" help:"Player source, overrides the config (auto, applescript, mpris)." alts:"auto,applescript,mpris"`
	Raw     bool   `optional:"true" help:"Print the player's raw state record instead of the label."`
	Copy    bool   `optional:"true" help:"Also copy the output to the clipboard."`
	Verbose bool   `short:"v" optional:"true" help:"Enable debug logging."`
}

func OnceCmd() *cobra.Command {
	return boa.CmdT[OnceParams]{
		Use:   "once",
		Short: "Print what the player is playing right now",
		Long: `Query the media player once and print the label, e.g. "♫ Artist - Track".

With --raw the player's record "<playing|paused>|<artist>|<track>|<position>|<duration>"
or one of not_running, error and timeout is printed instead.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *OnceParams, cmd *cobra.Command, args []string) {
			common.SetupLogging(params.Verbose, true)
			if err := runOnceCmd(cmd.Context(), params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "once: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runOnceCmd(ctx context.Context, params *OnceParams, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(params.Config, params.Source)
	if err != nil {
		return err
	}
	src, err := source.New(cfg)
	if err != nil {
		return err
	}
	return runOnce(ctx, onceOptions{
		querier:  src,
		liveness: source.NewProcessChecker(cfg.ProcessName),
		renderer: statusline.NewRenderer(cfg),
		raw:      params.Raw,
		copy:     params.Copy,
	}, stdout)
}

type onceOptions struct {
	querier  monitor.Querier
	liveness monitor.LivenessChecker
	renderer *statusline.Renderer
	raw      bool
	copy     bool
}

func runOnce(ctx context.Context, opts onceOptions, stdout io.Writer) error {
	raw := source.ResultNotRunning
	if opts.liveness == nil || opts.liveness.IsRunning(ctx) {
		raw = opts.querier.QueryState(ctx)
	}

	out := raw
	if !opts.raw {
		out = opts.renderer.Idle()
		mon := monitor.New(opts.querier, nil, monitor.SinkFuncs{
			OnStateChanged: func(change monitor.StateChange) {
				out = opts.renderer.Label(change)
			},
		}, monitor.Options{})
		mon.HandleResult(raw)
	}

	fmt.Fprintln(stdout, out)
	if opts.copy {
		if err := clipboardWriteAll(out); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
	}
	return nil
}
