package course

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/application/commands"
)

var registerStudent string

var registerCmd = &cobra.Command{
	Use:   "register [course-id]",
	Short: "Register for a course",
	Long: `Register the student for a course and put its lectures on the
calendar as immovable events.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RegisterCourseHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		courseID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid course id %q", planningDomain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(registerStudent)
		if err != nil {
			return err
		}

		result, err := app.RegisterCourseHandler.Handle(cmd.Context(), commands.RegisterCourseCommand{
			StudentID: studentID,
			CourseID:  courseID,
		})
		if err != nil {
			return fmt.Errorf("failed to register: %w", err)
		}

		fmt.Printf("Registered: %s\n", result.RegistrationID)
		fmt.Printf("  lecture events: %d\n", result.LectureEvents)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
}
