package course

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studora/studora/adapter/cli"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/application/commands"
	"github.com/studora/studora/internal/roster/domain"
)

// catalogRow mirrors one course in the registrar export file. Clock fields
// use four-digit registrar strings ("0930"), not HH:MM.
type catalogRow struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	CRN              int    `json:"crn"`
	Section          int    `json:"section"`
	Credits          int    `json:"credits"`
	ActualEnrollment int    `json:"actual_enrollment"`
	MaxEnrollment    int    `json:"max_enrollment"`
	Instructor       string `json:"instructor"`
	Semester         string `json:"semester"`
	Times            []struct {
		Days      string `json:"days"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Building  string `json:"building,omitempty"`
		Room      string `json:"room,omitempty"`
	} `json:"times"`
}

var syncCmd = &cobra.Command{
	Use:   "sync [catalog.json]",
	Short: "Sync the course catalog from a registrar export",
	Long: `Upsert courses from a registrar JSON export. Courses are matched by
CRN: new CRNs are created, known CRNs take the export's details.

Examples:
  studora course sync fall-2026.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SyncCoursesHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read catalog file: %w", err)
		}
		var rows []catalogRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("%w: parsing catalog file: %v", planningDomain.ErrInvalidInput, err)
		}

		syncCmd := commands.SyncCoursesCommand{Courses: make([]commands.CourseRecord, 0, len(rows))}
		for _, row := range rows {
			record := commands.CourseRecord{
				Code:             row.Code,
				Name:             row.Name,
				CRN:              row.CRN,
				Section:          row.Section,
				Credits:          row.Credits,
				ActualEnrollment: row.ActualEnrollment,
				MaxEnrollment:    row.MaxEnrollment,
				Instructor:       row.Instructor,
				Semester:         row.Semester,
			}
			for _, t := range row.Times {
				start, err := domain.ParseBannerClock(t.StartTime)
				if err != nil {
					return fmt.Errorf("CRN %d: %w", row.CRN, err)
				}
				end, err := domain.ParseBannerClock(t.EndTime)
				if err != nil {
					return fmt.Errorf("CRN %d: %w", row.CRN, err)
				}
				record.Timetable.Times = append(record.Timetable.Times, domain.MeetingTime{
					Days:      t.Days,
					StartTime: start,
					EndTime:   end,
					Building:  t.Building,
					Room:      t.Room,
				})
			}
			syncCmd.Courses = append(syncCmd.Courses, record)
		}

		result, err := app.SyncCoursesHandler.Handle(cmd.Context(), syncCmd)
		if err != nil {
			return fmt.Errorf("catalog sync failed: %w", err)
		}

		fmt.Printf("Catalog synced\n")
		fmt.Printf("  created: %d\n", result.Created)
		fmt.Printf("  updated: %d\n", result.Updated)
		fmt.Printf("  skipped: %d\n", result.Skipped)
		return nil
	},
}
