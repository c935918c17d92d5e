package session

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/internal/behavior/application/commands"
	"github.com/studora/studora/internal/behavior/domain"
	planningDomain "github.com/studora/studora/internal/planning/domain"
)

var (
	signalStudent string
	signalStart   string
	signalEnd     string
	signalPayload []string
)

var signalCmd = &cobra.Command{
	Use:   "signal [kind]",
	Short: "Record a context signal",
	Long: `Record what surrounded study time: classes, exams, sleep, exercise,
commutes. Signals explain session outcomes when the profile is derived.

Kinds: class, meeting, exam, sleep, exercise, commute

Examples:
  studora session signal sleep --start "2026-09-07 23:30" --end "2026-09-08 07:00"
  studora session signal exam --start "2026-09-10 08:00" --end "2026-09-10 10:00" --meta course=CMPS211`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RecordContextSignalHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		kind := domain.SignalKind(args[0])
		if !kind.IsValid() {
			return fmt.Errorf("%w: unknown signal kind %q", planningDomain.ErrInvalidInput, args[0])
		}
		studentID, err := cli.ResolveStudentID(signalStudent)
		if err != nil {
			return err
		}
		start, err := cli.ParseDateTime(signalStart)
		if err != nil {
			return err
		}
		end, err := cli.ParseDateTime(signalEnd)
		if err != nil {
			return err
		}

		recordCmd := commands.RecordContextSignalCommand{
			StudentID: studentID,
			Kind:      kind,
			StartTime: start,
			EndTime:   end,
		}
		for _, pair := range signalPayload {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				return fmt.Errorf("%w: metadata %q must be key=value", planningDomain.ErrInvalidInput, pair)
			}
			if recordCmd.Payload == nil {
				recordCmd.Payload = make(map[string]string)
			}
			recordCmd.Payload[key] = value
		}

		result, err := app.RecordContextSignalHandler.Handle(cmd.Context(), recordCmd)
		if err != nil {
			return fmt.Errorf("failed to record signal: %w", err)
		}

		fmt.Printf("Signal recorded: %s\n", result.SignalID)
		return nil
	},
}

func init() {
	signalCmd.Flags().StringVar(&signalStudent, "student", "", "student id (defaults to STUDORA_STUDENT_ID)")
	signalCmd.Flags().StringVar(&signalStart, "start", "", "signal start time")
	signalCmd.Flags().StringVar(&signalEnd, "end", "", "signal end time")
	signalCmd.Flags().StringSliceVar(&signalPayload, "meta", nil, "metadata entries (key=value)")
	_ = signalCmd.MarkFlagRequired("start")
	_ = signalCmd.MarkFlagRequired("end")
}
