package student

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/roster/application/commands"
)

var (
	email   string
	program string
	year    int
)

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new student",
	Long: `Create a new student account.

Examples:
  studora student create "Lina Haddad" --email lina@example.edu
  studora student create "Omar Saad" --email omar@example.edu --program "Computer Science" --year 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateStudentHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		result, err := app.CreateStudentHandler.Handle(cmd.Context(), commands.CreateStudentCommand{
			Name:    args[0],
			Email:   email,
			Program: program,
			Year:    year,
		})
		if err != nil {
			return fmt.Errorf("failed to create student: %w", err)
		}

		fmt.Printf("Student created: %s\n", result.StudentID)
		fmt.Printf("  export STUDORA_STUDENT_ID=%s\n", result.StudentID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&email, "email", "", "university email address")
	createCmd.Flags().StringVar(&program, "program", "", "degree program")
	createCmd.Flags().IntVar(&year, "year", 1, "year of study")
	_ = createCmd.MarkFlagRequired("email")
}
