package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/nowplaying/cmd"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "nowplaying",
		Short:   "Show what your media player is playing",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			cmd.RunCmd(),
			cmd.OnceCmd(),
			cmd.FormatCmd(),
			cmd.ConfigCmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
