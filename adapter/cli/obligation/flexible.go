package obligation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/planning/application/commands"
	"github.com/studora/studora/internal/planning/domain"
)

var flexCmd = &cobra.Command{
	Use:   "flex",
	Short: "Manage flexible obligations",
	Long: `Flexible obligations are weekly time budgets. The scheduler decides
where the hours land; you only set the target and optional constraints.`,
}

var (
	flexStudent      string
	flexDescription  string
	flexHours        float64
	flexSessionHours float64
	flexDays         string
	flexStartDate    string
	flexEndDate      string
	flexPriority     int
)

var flexCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a flexible obligation",
	Long: `Create a weekly time budget for the scheduler to place.

Examples:
  studora obligation flex create "German practice" --hours 3
  studora obligation flex create "Thesis reading" --hours 6 --session-hours 2 --days sat,sun`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateFlexibleObligationHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		studentID, err := cli.ResolveStudentID(flexStudent)
		if err != nil {
			return err
		}
		constraints, err := buildFlexConstraints()
		if err != nil {
			return err
		}

		createCmd := commands.CreateFlexibleObligationCommand{
			StudentID:         studentID,
			Name:              args[0],
			Description:       flexDescription,
			WeeklyTargetHours: flexHours,
			Constraints:       constraints,
			Priority:          flexPriority,
		}
		if createCmd.StartDate, createCmd.EndDate, err = parseFlexWindow(); err != nil {
			return err
		}

		result, err := app.CreateFlexibleObligationHandler.Handle(cmd.Context(), createCmd)
		if err != nil {
			return fmt.Errorf("failed to create flexible obligation: %w", err)
		}

		fmt.Printf("Flexible obligation created: %s\n", result.ObligationID)
		fmt.Printf("  weekly target: %.1f hours\n", flexHours)
		return nil
	},
}

var flexUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a flexible obligation's budget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateFlexibleObligationHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		obligationID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid obligation id %q", domain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(flexStudent)
		if err != nil {
			return err
		}
		constraints, err := buildFlexConstraints()
		if err != nil {
			return err
		}

		updateCmd := commands.UpdateFlexibleObligationCommand{
			ObligationID:      obligationID,
			StudentID:         studentID,
			WeeklyTargetHours: flexHours,
			Constraints:       constraints,
			Priority:          flexPriority,
		}
		if updateCmd.StartDate, updateCmd.EndDate, err = parseFlexWindow(); err != nil {
			return err
		}

		if err := app.UpdateFlexibleObligationHandler.Handle(cmd.Context(), updateCmd); err != nil {
			return fmt.Errorf("failed to update flexible obligation: %w", err)
		}

		fmt.Printf("Flexible obligation updated: %s\n", obligationID)
		return nil
	},
}

var flexDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a flexible obligation and its placed blocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DeleteFlexibleObligationHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		obligationID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid obligation id %q", domain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(flexStudent)
		if err != nil {
			return err
		}

		err = app.DeleteFlexibleObligationHandler.Handle(cmd.Context(), commands.DeleteFlexibleObligationCommand{
			ObligationID: obligationID,
			StudentID:    studentID,
		})
		if err != nil {
			return fmt.Errorf("failed to delete flexible obligation: %w", err)
		}

		fmt.Printf("Flexible obligation deleted: %s\n", obligationID)
		return nil
	},
}

func buildFlexConstraints() (domain.Constraints, error) {
	days, err := cli.ParseWeekdays(flexDays)
	if err != nil {
		return domain.Constraints{}, err
	}
	return domain.Constraints{
		SessionHours: flexSessionHours,
		AllowedDays:  days,
	}, nil
}

func parseFlexWindow() (start, end *time.Time, err error) {
	if flexStartDate != "" {
		parsed, err := cli.ParseDate(flexStartDate)
		if err != nil {
			return nil, nil, err
		}
		start = &parsed
	}
	if flexEndDate != "" {
		parsed, err := cli.ParseDate(flexEndDate)
		if err != nil {
			return nil, nil, err
		}
		end = &parsed
	}
	return start, end, nil
}

func registerFlexBudgetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flexStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	cmd.Flags().Float64Var(&flexHours, "hours", 0, "weekly target hours")
	cmd.Flags().Float64Var(&flexSessionHours, "session-hours", 0, "preferred session length in hours")
	cmd.Flags().StringVar(&flexDays, "days", "", "allowed weekdays (e.g. sat,sun)")
	cmd.Flags().StringVar(&flexStartDate, "start-date", "", "first active date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flexEndDate, "end-date", "", "last active date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&flexPriority, "priority", "p", 1, "priority (higher wins conflicts)")
	_ = cmd.MarkFlagRequired("hours")
}

func init() {
	registerFlexBudgetFlags(flexCreateCmd)
	flexCreateCmd.Flags().StringVar(&flexDescription, "description", "", "obligation description")
	registerFlexBudgetFlags(flexUpdateCmd)
	flexDeleteCmd.Flags().StringVar(&flexStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")

	flexCmd.AddCommand(flexCreateCmd)
	flexCmd.AddCommand(flexUpdateCmd)
	flexCmd.AddCommand(flexDeleteCmd)
}
