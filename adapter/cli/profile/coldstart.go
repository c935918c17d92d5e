package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/behavior/application/commands"
	"github.com/studora/studora/internal/behavior/application/services"
	planningDomain "github.com/studora/studora/internal/planning/domain"
)

var coldStartStudent string

var coldStartCmd = &cobra.Command{
	Use:   "cold-start [preference]",
	Short: "Seed a profile from a declared preference",
	Long: `Seed the profile before any sessions exist, from a self-declared
study-time preference.

Preferences: morning, afternoon, evening, none

Examples:
  studora profile cold-start evening`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ColdStartProfileHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		preference := services.StudyTimePreference(args[0])
		if !preference.IsValid() {
			return fmt.Errorf("%w: unknown preference %q", planningDomain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(coldStartStudent)
		if err != nil {
			return err
		}

		result, err := app.ColdStartProfileHandler.Handle(cmd.Context(), commands.ColdStartProfileCommand{
			StudentID:  studentID,
			Preference: preference,
		})
		if err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		fmt.Printf("Profile seeded: %s\n", result.ProfileID)
		for _, w := range result.PeakWindows {
			fmt.Printf("  %-9s %02d:00-%02d:00\n", w.Day, w.StartHour, w.EndHour)
		}
		return nil
	},
}

func init() {
	coldStartCmd.Flags().StringVar(&coldStartStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
