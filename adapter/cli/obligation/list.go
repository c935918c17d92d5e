package obligation

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/planning/application/queries"
)

var listStudent string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the student's planning inputs",
	Long:  `List fixed obligations, flexible budgets, and open academic tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListObligationsHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(listStudent)
		if err != nil {
			return err
		}

		result, err := app.ListObligationsHandler.Handle(cmd.Context(), queries.ListObligationsQuery{
			StudentID: studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to list obligations: %w", err)
		}

		fmt.Printf("Fixed obligations (%d)\n", len(result.Fixed))
		for _, o := range result.Fixed {
			days := make([]string, 0, len(o.DaysOfWeek()))
			for _, d := range o.DaysOfWeek() {
				days = append(days, d.String()[:3])
			}
			fmt.Printf("  %s  %-24s %s-%s %s\n",
				o.ID(), o.Name(), o.StartTime(), o.EndTime(), strings.Join(days, ","))
		}

		fmt.Printf("\nFlexible obligations (%d)\n", len(result.Flexible))
		for _, o := range result.Flexible {
			fmt.Printf("  %s  %-24s %.1f h/week\n", o.ID(), o.Name(), o.WeeklyTargetHours())
		}

		fmt.Printf("\nAcademic tasks (%d)\n", len(result.Tasks))
		for _, t := range result.Tasks {
			fmt.Printf("  %s  %-24s %-10s due %s (%.1f h, %s)\n",
				t.ID(), t.Title(), t.TaskType(), t.Deadline().Format("2006-01-02"),
				t.TotalHours(), t.Status())
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
