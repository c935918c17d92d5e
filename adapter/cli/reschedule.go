package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/internal/planning/application/commands"
)

var (
	rescheduleStudent   string
	rescheduleWeekStart string
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Re-plan the study calendar",
	Long: `Re-run the scheduler over the planning horizon.

Fixed obligations and lectures stay where they are; study sessions and
flexible blocks are re-placed around them.

Examples:
  studora reschedule
  studora reschedule --week-start 2026-09-07`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.RescheduleHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := ResolveStudentID(rescheduleStudent)
		if err != nil {
			return err
		}

		rescheduleCmd := commands.RescheduleCommand{StudentID: studentID}
		if rescheduleWeekStart != "" {
			weekStart, err := ParseDate(rescheduleWeekStart)
			if err != nil {
				return err
			}
			rescheduleCmd.WeekStart = &weekStart
		}

		result, err := app.RescheduleHandler.Handle(cmd.Context(), rescheduleCmd)
		if err != nil {
			return fmt.Errorf("reschedule failed: %w", err)
		}

		fmt.Printf("Schedule updated (%s)\n", result.SolverStatus)
		fmt.Printf("  events placed: %d\n", result.AppliedEvents)
		return nil
	},
}

func init() {
	rescheduleCmd.Flags().StringVar(&rescheduleStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	rescheduleCmd.Flags().StringVar(&rescheduleWeekStart, "week-start", "", "horizon start date (YYYY-MM-DD)")
	rootCmd.AddCommand(rescheduleCmd)
}
