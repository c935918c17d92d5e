package obligation

import (
	"github.com/spf13/cobra"
)

// Cmd is the obligation command group
var Cmd = &cobra.Command{
	Use:   "obligation",
	Short: "Manage fixed and flexible obligations",
	Long: `Manage the commitments the scheduler plans around: fixed blocks
that repeat at set times, and flexible weekly time budgets the solver
places for you.`,
}

func init() {
	Cmd.AddCommand(fixedCmd)
	Cmd.AddCommand(flexCmd)
	Cmd.AddCommand(listCmd)
}
