package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/studora/studora/internal/planning/application/queries"
	"github.com/studora/studora/internal/planning/domain"
)

var (
	agendaStudent string
	agendaFrom    string
	agendaDays    int
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Show the upcoming schedule",
	Long: `Show the student's calendar for the coming days, lectures and
study sessions alike, ordered by start time.

Examples:
  studora agenda
  studora agenda --days 3
  studora agenda --from 2026-09-07 --days 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.UpcomingEventsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := ResolveStudentID(agendaStudent)
		if err != nil {
			return err
		}

		from := time.Now().UTC()
		if agendaFrom != "" {
			if from, err = ParseDate(agendaFrom); err != nil {
				return err
			}
		}

		events, err := app.UpcomingEventsHandler.Handle(cmd.Context(), queries.UpcomingEventsQuery{
			StudentID: studentID,
			From:      from,
			Days:      agendaDays,
		})
		if err != nil {
			return fmt.Errorf("failed to load agenda: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("Nothing scheduled.")
			return nil
		}

		var day string
		for _, event := range events {
			if d := event.Date().Format("Mon 2006-01-02"); d != day {
				day = d
				fmt.Printf("\n%s\n", day)
			}
			fmt.Printf("  %s-%s  %-20s %s\n",
				event.StartTime().Format("15:04"),
				event.EndTime().Format("15:04"),
				eventLabel(event.Type()),
				event.Status(),
			)
		}
		return nil
	},
}

func eventLabel(t domain.EventType) string {
	switch t {
	case domain.EventFixedObligation:
		return "fixed obligation"
	case domain.EventFlexibleObligation:
		return "flexible block"
	case domain.EventStudySession:
		return "study session"
	case domain.EventCourseLecture:
		return "lecture"
	default:
		return string(t)
	}
}

func init() {
	agendaCmd.Flags().StringVar(&agendaStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	agendaCmd.Flags().StringVar(&agendaFrom, "from", "", "window start date (YYYY-MM-DD, defaults to now)")
	agendaCmd.Flags().IntVar(&agendaDays, "days", 7, "number of days to show")
	rootCmd.AddCommand(agendaCmd)
}
