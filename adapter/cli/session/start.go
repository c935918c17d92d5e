package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/behavior/application/commands"
	planningDomain "github.com/studora/studora/internal/planning/domain"
)

var (
	startStudent   string
	startTask      string
	startAt        string
	startEstimated int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a study session",
	Long: `Open a study session. Close it later with "session finish".

Examples:
  studora session start --estimated 60
  studora session start --task 9b1f... --estimated 90`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.StartSessionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(startStudent)
		if err != nil {
			return err
		}

		startCmd := commands.StartSessionCommand{
			StudentID:        studentID,
			StartTime:        time.Now().UTC(),
			EstimatedMinutes: startEstimated,
		}
		if startAt != "" {
			if startCmd.StartTime, err = cli.ParseDateTime(startAt); err != nil {
				return err
			}
		}
		if startTask != "" {
			taskID, err := uuid.Parse(startTask)
			if err != nil {
				return fmt.Errorf("%w: invalid task id %q", planningDomain.ErrInvalidInput, startTask)
			}
			startCmd.TaskID = &taskID
		}

		result, err := app.StartSessionHandler.Handle(cmd.Context(), startCmd)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}

		fmt.Printf("Session started: %s\n", result.SessionID)
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&startStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	startCmd.Flags().StringVar(&startTask, "task", "", "academic task being worked on")
	startCmd.Flags().StringVar(&startAt, "at", "", "start time (defaults to now)")
	startCmd.Flags().IntVar(&startEstimated, "estimated", 0, "estimated duration in minutes")
}
