package session

import (
	"github.com/spf13/cobra"
)

// Cmd is the session command group
var Cmd = &cobra.Command{
	Use:   "session",
	Short: "Log study sessions",
	Long: `Track study sessions as they happen. Finalized sessions feed the
productivity profile that tunes future schedules.`,
}

func init() {
	Cmd.AddCommand(startCmd)
	Cmd.AddCommand(finishCmd)
	Cmd.AddCommand(signalCmd)
}
