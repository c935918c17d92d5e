package task

import (
	"github.com/spf13/cobra"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage academic tasks",
	Long:  `Create, complete, and track deadline-driven academic work.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(completeCmd)
	Cmd.AddCommand(overdueCmd)
}
