package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/behavior/application/commands"
)

var updateStudent string

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-derive the profile from session history",
	Long: `Recompute the productivity profile from all finalized sessions and
context signals. Normally this happens automatically when a session is
finalized; the command forces a refresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateProfileHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(updateStudent)
		if err != nil {
			return err
		}

		result, err := app.UpdateProfileHandler.Handle(cmd.Context(), commands.UpdateProfileCommand{
			StudentID: studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		fmt.Printf("Profile updated: %s\n", result.ProfileID)
		fmt.Printf("  as of: %s\n", result.LastUpdated.Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
