package commands

import (
	"context"
	"errors"
	"log/slog"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/domain"
	sharedApplication "github.com/studora/studora/internal/shared/application"
)

// CourseRecord is one registrar row from a catalog sync.
type CourseRecord struct {
	Code             string
	Name             string
	CRN              int
	Section          int
	Credits          int
	ActualEnrollment int
	MaxEnrollment    int
	Instructor       string
	Semester         string
	Timetable        domain.Timetable
}

// SyncCoursesCommand upserts a batch of registrar rows keyed by CRN.
type SyncCoursesCommand struct {
	Courses []CourseRecord
}

// SyncCoursesResult counts the outcome of one sync run.
type SyncCoursesResult struct {
	Created int
	Updated int
	Skipped int
}

// SyncCoursesHandler handles the SyncCoursesCommand.
type SyncCoursesHandler struct {
	repo   domain.CourseRepository
	uow    sharedApplication.UnitOfWork
	logger *slog.Logger
}

// NewSyncCoursesHandler creates a new SyncCoursesHandler.
func NewSyncCoursesHandler(repo domain.CourseRepository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *SyncCoursesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncCoursesHandler{repo: repo, uow: uow, logger: logger}
}

// Handle executes the SyncCoursesCommand. Rows with invalid data are skipped
// rather than failing the batch.
func (h *SyncCoursesHandler) Handle(ctx context.Context, cmd SyncCoursesCommand) (*SyncCoursesResult, error) {
	result := &SyncCoursesResult{}

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		for _, record := range cmd.Courses {
			existing, err := h.repo.FindByCRN(txCtx, record.CRN)
			switch {
			case err == nil:
				existing.SyncDetails(
					record.Code, record.Name,
					record.Section, record.Credits,
					record.ActualEnrollment, record.MaxEnrollment,
					record.Instructor, record.Semester,
					record.Timetable,
				)
				if err := h.repo.Save(txCtx, existing); err != nil {
					return err
				}
				result.Updated++

			case errors.Is(err, planningDomain.ErrNotFound):
				course, err := domain.NewCourse(
					record.Code, record.Name,
					record.CRN, record.Section, record.Credits,
					record.Instructor, record.Semester,
					record.Timetable,
				)
				if err != nil {
					h.logger.Warn("skipping invalid course record", "crn", record.CRN, "error", err)
					result.Skipped++
					continue
				}
				course.SetEnrollment(record.ActualEnrollment, record.MaxEnrollment)
				if err := h.repo.Save(txCtx, course); err != nil {
					return err
				}
				result.Created++

			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("course sync finished",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped)
	return result, nil
}
