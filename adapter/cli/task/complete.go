package task

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/planning/application/commands"
	"github.com/studora/studora/internal/planning/domain"
)

var completeStudent string

var completeCmd = &cobra.Command{
	Use:   "complete [id]",
	Short: "Mark a task as completed",
	Long: `Mark a task done and cancel its remaining study sessions. Freed
slots stay open until the next reschedule.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CompleteAcademicTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid task id %q", domain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(completeStudent)
		if err != nil {
			return err
		}

		err = app.CompleteAcademicTaskHandler.Handle(cmd.Context(), commands.CompleteAcademicTaskCommand{
			TaskID:    taskID,
			StudentID: studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		fmt.Printf("Task completed: %s\n", taskID)
		return nil
	},
}

func init() {
	completeCmd.Flags().StringVar(&completeStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
