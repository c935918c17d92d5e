package profile

import (
	"github.com/spf13/cobra"
)

// Cmd is the profile command group
var Cmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and refresh the productivity profile",
	Long: `The productivity profile captures when the student studies well.
It is derived from finalized sessions and optionally steers the
scheduler toward high-efficiency slots.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(coldStartCmd)
	Cmd.AddCommand(recommendCmd)
	Cmd.AddCommand(predictCmd)
}
