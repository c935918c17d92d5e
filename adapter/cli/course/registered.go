package course

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/roster/application/queries"
)

var registeredStudent string

var registeredCmd = &cobra.Command{
	Use:   "registered",
	Short: "List the student's registered courses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RegisteredCoursesHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(registeredStudent)
		if err != nil {
			return err
		}

		courses, err := app.RegisteredCoursesHandler.Handle(cmd.Context(), queries.RegisteredCoursesQuery{
			StudentID: studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to list registrations: %w", err)
		}

		if len(courses) == 0 {
			fmt.Println("No registered courses.")
			return nil
		}
		printCourses(courses)
		return nil
	},
}

func init() {
	registeredCmd.Flags().StringVar(&registeredStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
