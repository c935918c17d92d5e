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
	finishStudent    string
	finishAt         string
	finishAbandoned  bool
	finishRating     int
	finishDifficulty int
	finishNotes      string
)

var finishCmd = &cobra.Command{
	Use:   "finish [session-id]",
	Short: "Finalize a study session",
	Long: `Close an open session and refresh the productivity profile from the
accumulated telemetry.

Examples:
  studora session finish 3f8a... --rating 4
  studora session finish 3f8a... --abandoned --notes "roommates came back"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.FinalizeSessionHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		sessionID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid session id %q", planningDomain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(finishStudent)
		if err != nil {
			return err
		}

		finishCmd := commands.FinalizeSessionCommand{
			SessionID: sessionID,
			StudentID: studentID,
			EndTime:   time.Now().UTC(),
			Completed: !finishAbandoned,
			Notes:     finishNotes,
		}
		if finishAt != "" {
			if finishCmd.EndTime, err = cli.ParseDateTime(finishAt); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("rating") {
			finishCmd.SelfRating = &finishRating
		}
		if cmd.Flags().Changed("difficulty") {
			finishCmd.Difficulty = &finishDifficulty
		}

		result, err := app.FinalizeSessionHandler.Handle(cmd.Context(), finishCmd)
		if err != nil {
			return fmt.Errorf("failed to finalize session: %w", err)
		}

		fmt.Printf("Session finalized: %s\n", sessionID)
		fmt.Printf("  duration: %d minutes\n", result.ActualMinutes)
		if result.ProfileUpdated {
			fmt.Println("  profile refreshed")
		}
		return nil
	},
}

func init() {
	finishCmd.Flags().StringVar(&finishStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	finishCmd.Flags().StringVar(&finishAt, "at", "", "end time (defaults to now)")
	finishCmd.Flags().BoolVar(&finishAbandoned, "abandoned", false, "session was abandoned, not completed")
	finishCmd.Flags().IntVar(&finishRating, "rating", 0, "self-rated focus (1-5)")
	finishCmd.Flags().IntVar(&finishDifficulty, "difficulty", 0, "perceived difficulty (1-5)")
	finishCmd.Flags().StringVar(&finishNotes, "notes", "", "free-form notes")
}
