package student

import (
	"github.com/spf13/cobra"
)

// Cmd is the student command group
var Cmd = &cobra.Command{
	Use:   "student",
	Short: "Manage student profiles",
	Long:  `Create students and inspect their profiles.`,
}

func init() {
	Cmd.AddCommand(createCmd)
}
