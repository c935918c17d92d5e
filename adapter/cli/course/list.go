package course

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/roster/application/queries"
	"github.com/studora/studora/internal/roster/domain"
)

var listSemester string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog courses for a semester",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListCoursesHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		courses, err := app.ListCoursesHandler.Handle(cmd.Context(), queries.ListCoursesQuery{
			Semester: listSemester,
		})
		if err != nil {
			return fmt.Errorf("failed to list courses: %w", err)
		}

		if len(courses) == 0 {
			fmt.Printf("No courses for semester %s.\n", listSemester)
			return nil
		}
		printCourses(courses)
		return nil
	},
}

func printCourses(courses []*domain.Course) {
	for _, c := range courses {
		fmt.Printf("%d  %-10s %-36s sec %d, %d cr", c.CRN(), c.Code(), c.Name(), c.Section(), c.Credits())
		if c.Instructor() != "" {
			fmt.Printf("  (%s)", c.Instructor())
		}
		fmt.Println()
		for _, t := range c.Timetable().Times {
			fmt.Printf("      %-4s %s-%s", t.Days, t.StartTime, t.EndTime)
			if t.Building != "" {
				fmt.Printf("  %s %s", t.Building, t.Room)
			}
			fmt.Println()
		}
	}
}

func init() {
	listCmd.Flags().StringVar(&listSemester, "semester", "", "semester code (e.g. 202610)")
	_ = listCmd.MarkFlagRequired("semester")
}
