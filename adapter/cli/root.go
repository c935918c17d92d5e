package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/pkg/observability"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

// Exit codes surfaced to shell scripts. Anything the scheduler can report
// gets its own code so cron wrappers can branch on it.
const (
	ExitOK            = 0
	ExitError         = 1
	ExitInvalidInput  = 2
	ExitInfeasible    = 3
	ExitSolverTimeout = 4
	ExitPersistence   = 5
)

type commandStartKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studora",
	Short: "Studora - Adaptive Study Planner",
	Long: `Studora is a CLI-first study planner for university students.

	It combines fixed commitments, weekly study budgets, and academic
	deadlines into a single conflict-free calendar, and adapts the
	schedule as logged study sessions reveal how the student actually
	works.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := observability.WithCorrelationID(cmd.Context(), "")
		ctx = observability.WithOperation(ctx, cmd.CommandPath())
		cmd.SetContext(context.WithValue(ctx, commandStartKey{}, time.Now()))
		logger.InfoContext(cmd.Context(), "command start",
			"command", cmd.CommandPath(),
			"correlation_id", observability.CorrelationIDFromContext(ctx),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		startedAt, ok := ctx.Value(commandStartKey{}).(time.Time)
		if !ok {
			return
		}
		logger.InfoContext(ctx, "command end",
			"command", cmd.CommandPath(),
			"correlation_id", observability.CorrelationIDFromContext(ctx),
			"duration_ms", time.Since(startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCodeFor(err))
	}
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, planningDomain.ErrInvalidInput),
		errors.Is(err, planningDomain.ErrNotFound):
		return ExitInvalidInput
	case errors.Is(err, planningDomain.ErrInfeasible):
		return ExitInfeasible
	case errors.Is(err, planningDomain.ErrSolverTimeout):
		return ExitSolverTimeout
	case errors.Is(err, planningDomain.ErrPersistence):
		return ExitPersistence
	default:
		return ExitError
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
