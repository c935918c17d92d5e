package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/behavior/application/queries"
)

var showStudent string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current productivity profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetProfileHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(showStudent)
		if err != nil {
			return err
		}

		profile, err := app.GetProfileHandler.Handle(cmd.Context(), queries.GetProfileQuery{
			StudentID: studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		fmt.Printf("Profile for %s (updated %s)\n", studentID, profile.LastUpdated().Format("2006-01-02 15:04"))
		fmt.Printf("  max continuous: %d minutes\n", profile.MaxContinuousMinutes())
		fmt.Printf("  ideal break:    %d minutes\n", profile.IdealBreakMinutes())
		fmt.Printf("  fatigue factor: %.2f\n", profile.FatigueFactor())

		if windows := profile.PeakWindows(); len(windows) > 0 {
			fmt.Println("  peak windows:")
			for _, w := range windows {
				fmt.Printf("    %-9s %02d:00-%02d:00  efficiency %.2f\n",
					w.Day, w.StartHour, w.EndHour, w.Efficiency)
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
