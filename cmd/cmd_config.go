package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/nowplaying/cmd/common"
	"github.com/gigurra/nowplaying/cmd/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func ConfigCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "config",
		Short: "Inspect or create the config file",
		SubCmds: []*cobra.Command{
			configPathCmd(),
			configInitCmd(),
			configShowCmd(),
		},
	}.ToCobra()
}

type ConfigPathParams struct{}

func configPathCmd() *cobra.Command {
	return boa.CmdT[ConfigPathParams]{
		Use:         "path",
		Short:       "Print the default config file path",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ConfigPathParams, cmd *cobra.Command, args []string) {
			fmt.Println(config.ConfigPath())
		},
	}.ToCobra()
}

type ConfigInitParams struct {
	Config string `short:"c" optional:"true" help:"Path to the config file (default ~/.nowplaying/config.json)."`
	Force  bool   `short:"f" optional:"true" help:"Overwrite an existing config file."`
}

func configInitCmd() *cobra.Command {
	return boa.CmdT[ConfigInitParams]{
		Use:         "init",
		Short:       "Write a config file with the default settings",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ConfigInitParams, cmd *cobra.Command, args []string) {
			if err := runConfigInit(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "config init: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runConfigInit(params *ConfigInitParams, stdout io.Writer) error {
	path := params.Config
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !params.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

type ConfigShowParams struct {
	Config string `short:"c" optional:"true" help:"Path to the config file (default ~/.nowplaying/config.json)."`
	JSON   bool   `short:"j" optional:"true" help:"Print the effective config as JSON."`
}

func configShowCmd() *cobra.Command {
	return boa.CmdT[ConfigShowParams]{
		Use:         "show",
		Short:       "Show the effective settings, defaults included",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ConfigShowParams, cmd *cobra.Command, args []string) {
			if err := runConfigShow(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "config show: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runConfigShow(params *ConfigShowParams, stdout io.Writer) error {
	cfg, err := config.Load(params.Config)
	if err != nil {
		return err
	}

	if params.JSON {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Setting", "Value"})
	for _, row := range configRows(cfg) {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	t.Render()
	return nil
}

func configRows(cfg *config.Config) [][2]string {
	rows := [][2]string{
		{"max_display_length", strconv.Itoa(cfg.MaxDisplayLength)},
		{"playing_poll_interval", cfg.PlayingPollInterval().String()},
		{"paused_poll_interval", cfg.PausedPollInterval().String()},
		{"query_timeout", cfg.QueryTimeout().String()},
		{"source_init_delay", cfg.SourceInitDelay().String()},
		{"liveness_check_interval", cfg.LivenessCheckInterval().String()},
		{"source", cfg.Source},
		{"process_name", cfg.ProcessName},
		{"mpris_player", cfg.MPRISPlayer},
	}
	if cfg.Symbols != nil {
		rows = append(rows,
			[2]string{"symbols.playing", cfg.Symbols.Playing},
			[2]string{"symbols.paused", cfg.Symbols.Paused},
			[2]string{"symbols.idle", cfg.Symbols.Idle},
		)
	}
	if cfg.Notifications != nil {
		rows = append(rows,
			[2]string{"notifications.enabled", strconv.FormatBool(cfg.Notifications.Enabled)},
			[2]string{"notifications.cooldown", cfg.NotificationCooldown().String()},
		)
	}
	return rows
}
