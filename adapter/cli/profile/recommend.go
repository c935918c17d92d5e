package profile

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/behavior/application/queries"
)

var (
	recommendStudent   string
	recommendFrom      string
	recommendDuration  int
	recommendLookahead int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend study slots",
	Long: `Suggest the best upcoming study slots for a given duration, ranked
by predicted efficiency.

Examples:
  studora profile recommend --duration 90
  studora profile recommend --duration 120 --lookahead 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RecommendSlotsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(recommendStudent)
		if err != nil {
			return err
		}

		from := time.Now().UTC()
		if recommendFrom != "" {
			if from, err = cli.ParseDateTime(recommendFrom); err != nil {
				return err
			}
		}

		slots, err := app.RecommendSlotsHandler.Handle(cmd.Context(), queries.RecommendSlotsQuery{
			StudentID:       studentID,
			From:            from,
			DurationMinutes: recommendDuration,
			LookaheadDays:   recommendLookahead,
		})
		if err != nil {
			return fmt.Errorf("failed to recommend slots: %w", err)
		}

		if len(slots) == 0 {
			fmt.Println("No slots to recommend.")
			return nil
		}
		for i, slot := range slots {
			fmt.Printf("%d. %s  %s-%s  efficiency %.2f\n",
				i+1,
				slot.Start.Format("Mon 2006-01-02"),
				slot.Start.Format("15:04"),
				slot.End.Format("15:04"),
				slot.Efficiency,
			)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	recommendCmd.Flags().StringVar(&recommendFrom, "from", "", "window start (defaults to now)")
	recommendCmd.Flags().IntVarP(&recommendDuration, "duration", "d", 60, "session duration in minutes")
	recommendCmd.Flags().IntVar(&recommendLookahead, "lookahead", 7, "days to look ahead")
}
