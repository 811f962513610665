package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/nowplaying/cmd/common"
	"github.com/gigurra/nowplaying/cmd/display"
	"github.com/spf13/cobra"
)

type FormatParams struct {
	Artist    string `pos:"true" required:"true" help:"Artist name."`
	Track     string `pos:"true" required:"true" help:"Track title."`
	MaxLength int    `short:"l" optional:"true" help:"Maximum label length in characters." default:"50"`
}

func FormatCmd() *cobra.Command {
	return boa.CmdT[FormatParams]{
		Use:   "format",
		Short: "Format an artist and track the way the status label does",
		Long: `Print "artist - track", shortened to the maximum length.

Lengths count user-perceived characters. When the text is too long, the artist gets at
most half of the room left after the separator and the trailing "...".`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *FormatParams, cmd *cobra.Command, args []string) {
			if err := runFormat(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "format: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runFormat(params *FormatParams, stdout io.Writer) error {
	if params.MaxLength < 0 {
		return fmt.Errorf("max length must not be negative, got %d", params.MaxLength)
	}
	fmt.Fprintln(stdout, display.Format(params.Artist, params.Track, params.MaxLength))
	return nil
}
