package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/planning/application/commands"
)

var overdueStudent string

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Sweep past-deadline tasks into the overdue state",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.MarkTasksOverdueHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(overdueStudent)
		if err != nil {
			return err
		}

		result, err := app.MarkTasksOverdueHandler.Handle(cmd.Context(), commands.MarkTasksOverdueCommand{
			StudentID: studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to sweep overdue tasks: %w", err)
		}

		fmt.Printf("Tasks marked overdue: %d\n", result.Transitioned)
		return nil
	},
}

func init() {
	overdueCmd.Flags().StringVar(&overdueStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
