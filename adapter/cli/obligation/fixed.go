package obligation

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/planning/application/commands"
	"github.com/studora/studora/internal/planning/domain"
)

var fixedCmd = &cobra.Command{
	Use:   "fixed",
	Short: "Manage fixed obligations",
	Long:  `Fixed obligations occupy set weekday times and are never moved by the scheduler.`,
}

var (
	fixedStudent     string
	fixedDescription string
	fixedStart       string
	fixedEnd         string
	fixedDays        string
	fixedStartDate   string
	fixedEndDate     string
	fixedRecurrence  string
	fixedPriority    int
	fixedCourse      string
)

var fixedCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a fixed obligation",
	Long: `Create a repeating fixed block and materialize its calendar occurrences.

Examples:
  studora obligation fixed create "Part-time job" --start 14:00 --end 18:00 --days tue,thu --start-date 2026-09-01
  studora obligation fixed create "Gym" --start 07:00 --end 08:00 --days mon,wed,fri --start-date 2026-09-01 --recurrence weekly`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateFixedObligationHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		createCmd, err := buildFixedTemplate(args[0])
		if err != nil {
			return err
		}
		if fixedCourse != "" {
			courseID, err := uuid.Parse(fixedCourse)
			if err != nil {
				return fmt.Errorf("%w: invalid course id %q", domain.ErrInvalidInput, fixedCourse)
			}
			createCmd.CourseID = &courseID
		}

		result, err := app.CreateFixedObligationHandler.Handle(cmd.Context(), *createCmd)
		if err != nil {
			return fmt.Errorf("failed to create fixed obligation: %w", err)
		}

		fmt.Printf("Fixed obligation created: %s\n", result.ObligationID)
		fmt.Printf("  occurrences: %d\n", result.EventsCount)
		return nil
	},
}

var fixedUpdateCmd = &cobra.Command{
	Use:   "update [id] [name]",
	Short: "Update a fixed obligation",
	Long: `Replace the obligation's template and rebuild its future occurrences.
Past occurrences are left untouched.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateFixedObligationHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		obligationID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid obligation id %q", domain.ErrInvalidInput, args[0])
		}
		template, err := buildFixedTemplate(args[1])
		if err != nil {
			return err
		}

		err = app.UpdateFixedObligationHandler.Handle(cmd.Context(), commands.UpdateFixedObligationCommand{
			ObligationID: obligationID,
			StudentID:    template.StudentID,
			Name:         template.Name,
			Description:  template.Description,
			StartTime:    template.StartTime,
			EndTime:      template.EndTime,
			DaysOfWeek:   template.DaysOfWeek,
			StartDate:    template.StartDate,
			EndDate:      template.EndDate,
			Recurrence:   template.Recurrence,
			Priority:     template.Priority,
		})
		if err != nil {
			return fmt.Errorf("failed to update fixed obligation: %w", err)
		}

		fmt.Printf("Fixed obligation updated: %s\n", obligationID)
		return nil
	},
}

var fixedDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a fixed obligation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DeleteFixedObligationHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		obligationID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid obligation id %q", domain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(fixedStudent)
		if err != nil {
			return err
		}

		err = app.DeleteFixedObligationHandler.Handle(cmd.Context(), commands.DeleteFixedObligationCommand{
			ObligationID: obligationID,
			StudentID:    studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to delete fixed obligation: %w", err)
		}

		fmt.Printf("Fixed obligation deleted: %s\n", obligationID)
		return nil
	},
}

// buildFixedTemplate assembles the shared create/update template from flags.
func buildFixedTemplate(name string) (*commands.CreateFixedObligationCommand, error) {
	studentID, err := cli.ResolveStudentID(fixedStudent)
	if err != nil {
		return nil, err
	}
	startTime, err := domain.ParseTimeOfDay(fixedStart)
	if err != nil {
		return nil, err
	}
	endTime, err := domain.ParseTimeOfDay(fixedEnd)
	if err != nil {
		return nil, err
	}
	days, err := cli.ParseWeekdays(fixedDays)
	if err != nil {
		return nil, err
	}
	startDate, err := cli.ParseDate(fixedStartDate)
	if err != nil {
		return nil, err
	}
	recurrence, err := domain.ParseRecurrence(fixedRecurrence)
	if err != nil {
		return nil, err
	}

	template := &commands.CreateFixedObligationCommand{
		StudentID:   studentID,
		Name:        name,
		Description: fixedDescription,
		StartTime:   startTime,
		EndTime:     endTime,
		DaysOfWeek:  days,
		StartDate:   startDate,
		Recurrence:  recurrence,
		Priority:    fixedPriority,
	}
	if fixedEndDate != "" {
		endDate, err := cli.ParseDate(fixedEndDate)
		if err != nil {
			return nil, err
		}
		template.EndDate = &endDate
	}
	return template, nil
}

func registerFixedTemplateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&fixedStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	cmd.Flags().StringVar(&fixedDescription, "description", "", "obligation description")
	cmd.Flags().StringVar(&fixedStart, "start", "", "start time (HH:MM)")
	cmd.Flags().StringVar(&fixedEnd, "end", "", "end time (HH:MM)")
	cmd.Flags().StringVar(&fixedDays, "days", "", "weekdays (e.g. mon,wed,fri)")
	cmd.Flags().StringVar(&fixedStartDate, "start-date", "", "first active date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fixedEndDate, "end-date", "", "last active date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fixedRecurrence, "recurrence", "weekly", "recurrence (weekly, biweekly, monthly)")
	cmd.Flags().IntVarP(&fixedPriority, "priority", "p", 1, "priority (higher wins conflicts)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("days")
	_ = cmd.MarkFlagRequired("start-date")
}

func init() {
	registerFixedTemplateFlags(fixedCreateCmd)
	fixedCreateCmd.Flags().StringVar(&fixedCourse, "course", "", "linked course id")
	registerFixedTemplateFlags(fixedUpdateCmd)
	fixedDeleteCmd.Flags().StringVar(&fixedStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")

	fixedCmd.AddCommand(fixedCreateCmd)
	fixedCmd.AddCommand(fixedUpdateCmd)
	fixedCmd.AddCommand(fixedDeleteCmd)
}
