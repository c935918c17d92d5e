package course

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/application/commands"
)

var unregisterStudent string

var unregisterCmd = &cobra.Command{
	Use:   "unregister [course-id]",
	Short: "Drop a course",
	Long:  `Drop the registration and remove the course's lecture events.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UnregisterCourseHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		courseID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid course id %q", planningDomain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(unregisterStudent)
		if err != nil {
			return err
		}

		err = app.UnregisterCourseHandler.Handle(cmd.Context(), commands.UnregisterCourseCommand{
			StudentID: studentID,
			CourseID:  courseID,
		})
		if err != nil {
			return fmt.Errorf("failed to unregister: %w", err)
		}

		fmt.Printf("Unregistered from course: %s\n", courseID)
		return nil
	},
}

func init() {
	unregisterCmd.Flags().StringVar(&unregisterStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
