package course

import (
	"github.com/spf13/cobra"
)

// Cmd is the course command group
var Cmd = &cobra.Command{
	Use:   "course",
	Short: "Manage the course catalog and registrations",
	Long:  `Sync the registrar catalog, browse courses, and manage registrations.`,
}

func init() {
	Cmd.AddCommand(syncCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(registerCmd)
	Cmd.AddCommand(unregisterCmd)
	Cmd.AddCommand(registeredCmd)
}
