package task

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/planning/application/commands"
	"github.com/studora/studora/internal/planning/domain"
)

var (
	student      string
	course       string
	taskType     string
	description  string
	deadline     string
	totalHours   float64
	sessionHours float64
	dependsOn    string
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create an academic task",
	Long: `Create a deadline-driven task. The scheduler spreads its hours into
study sessions that finish before the deadline.

Examples:
  studora task create "Assignment 3" --course 7c0e... --type assignment --deadline "2026-10-02 23:59" --hours 6
  studora task create "Midterm revision" --course 7c0e... --type revision --deadline "2026-10-15 08:00" --hours 10 --session-hours 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateAcademicTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(student)
		if err != nil {
			return err
		}
		courseID, err := uuid.Parse(course)
		if err != nil {
			return fmt.Errorf("%w: invalid course id %q", domain.ErrInvalidInput, course)
		}
		kind := domain.TaskType(taskType)
		if !kind.IsValid() {
			return fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, taskType)
		}
		due, err := cli.ParseDateTime(deadline)
		if err != nil {
			return err
		}

		createCmd := commands.CreateAcademicTaskCommand{
			StudentID:    studentID,
			CourseID:     courseID,
			TaskType:     kind,
			Title:        args[0],
			Description:  description,
			Deadline:     due,
			TotalHours:   totalHours,
			SessionHours: sessionHours,
		}
		if dependsOn != "" {
			for _, raw := range strings.Split(dependsOn, ",") {
				dep, err := uuid.Parse(strings.TrimSpace(raw))
				if err != nil {
					return fmt.Errorf("%w: invalid dependency id %q", domain.ErrInvalidInput, raw)
				}
				createCmd.Dependencies = append(createCmd.Dependencies, dep)
			}
		}

		result, err := app.CreateAcademicTaskHandler.Handle(cmd.Context(), createCmd)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		fmt.Printf("Task created: %s\n", result.TaskID)
		fmt.Printf("  title: %s\n", args[0])
		fmt.Printf("  due:   %s\n", due.Format("2006-01-02 15:04"))
		fmt.Printf("  hours: %.1f\n", totalHours)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&student, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	createCmd.Flags().StringVar(&course, "course", "", "course id")
	createCmd.Flags().StringVarP(&taskType, "type", "t", "assignment", "task type (revision, assignment, project, exam)")
	createCmd.Flags().StringVar(&description, "description", "", "task description")
	createCmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339 or \"YYYY-MM-DD HH:MM\")")
	createCmd.Flags().Float64Var(&totalHours, "hours", 0, "estimated total hours")
	createCmd.Flags().Float64Var(&sessionHours, "session-hours", 0, "preferred session length in hours")
	createCmd.Flags().StringVar(&dependsOn, "depends-on", "", "comma-separated prerequisite task ids")
	_ = createCmd.MarkFlagRequired("course")
	_ = createCmd.MarkFlagRequired("deadline")
	_ = createCmd.MarkFlagRequired("hours")
}
