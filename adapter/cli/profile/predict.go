package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/behavior/application/queries"
)

var (
	predictStudent  string
	predictStart    string
	predictDuration int
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict performance for a planned session",
	Long: `Predict how a session at a given time would go: expected efficiency,
completion probability, and likely overrun.

Examples:
  studora profile predict --start "2026-09-08 20:00" --duration 120`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.PredictPerformanceHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(predictStudent)
		if err != nil {
			return err
		}
		start, err := cli.ParseDateTime(predictStart)
		if err != nil {
			return err
		}

		prediction, err := app.PredictPerformanceHandler.Handle(cmd.Context(), queries.PredictPerformanceQuery{
			StudentID:       studentID,
			Start:           start,
			DurationMinutes: predictDuration,
		})
		if err != nil {
			return fmt.Errorf("failed to predict: %w", err)
		}

		fmt.Printf("Prediction for %s (%d minutes)\n", start.Format("Mon 2006-01-02 15:04"), predictDuration)
		fmt.Printf("  efficiency:             %.2f\n", prediction.Efficiency)
		fmt.Printf("  completion probability: %.0f%%\n", prediction.CompletionProbability*100)
		fmt.Printf("  expected overrun:       %d minutes\n", prediction.ExpectedOverrunMins)
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	predictCmd.Flags().StringVar(&predictStart, "start", "", "proposed session start")
	predictCmd.Flags().IntVarP(&predictDuration, "duration", "d", 60, "session duration in minutes")
	_ = predictCmd.MarkFlagRequired("start")
}
