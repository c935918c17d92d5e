package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
)

const courseColumns = `
	SELECT id, code, name, crn, section, credits, actual_enrollment,
	       max_enrollment, instructor, semester, timetable, created_at, updated_at
	FROM courses
`

// Catalog syncs key the upsert on the registrar CRN so a section keeps its
// identity across runs.
const upsertCourseQuery = `
	INSERT INTO courses (
		id, code, name, crn, section, credits, actual_enrollment,
		max_enrollment, instructor, semester, timetable, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (crn) DO UPDATE SET
		code = EXCLUDED.code,
		name = EXCLUDED.name,
		section = EXCLUDED.section,
		credits = EXCLUDED.credits,
		actual_enrollment = EXCLUDED.actual_enrollment,
		max_enrollment = EXCLUDED.max_enrollment,
		instructor = EXCLUDED.instructor,
		semester = EXCLUDED.semester,
		timetable = EXCLUDED.timetable,
		updated_at = EXCLUDED.updated_at
`

// PostgresCourseRepository implements domain.CourseRepository using
// PostgreSQL.
type PostgresCourseRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCourseRepository creates a new repository.
func NewPostgresCourseRepository(pool *pgxpool.Pool) *PostgresCourseRepository {
	return &PostgresCourseRepository{pool: pool}
}

// Save upserts the course.
func (r *PostgresCourseRepository) Save(ctx context.Context, course *domain.Course) error {
	timetable, err := json.Marshal(course.Timetable())
	if err != nil {
		return fmt.Errorf("encode timetable: %w", err)
	}

	execer := sharedPersistence.Executor(ctx, r.pool)
	_, err = execer.Exec(ctx, upsertCourseQuery,
		course.ID(),
		course.Code(),
		course.Name(),
		int32(course.CRN()),
		int32(course.Section()),
		int32(course.Credits()),
		int32(course.ActualEnrollment()),
		int32(course.MaxEnrollment()),
		course.Instructor(),
		course.Semester(),
		timetable,
		course.CreatedAt(),
		course.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	return nil
}

// FindByID loads one course.
func (r *PostgresCourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	course, err := scanCourse(execer.QueryRow(ctx, courseColumns+` WHERE id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: course %s", planningDomain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

// FindByCRN loads a course by its registrar reference number.
func (r *PostgresCourseRepository) FindByCRN(ctx context.Context, crn int) (*domain.Course, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	course, err := scanCourse(execer.QueryRow(ctx, courseColumns+` WHERE crn = $1`, int32(crn)))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: course with CRN %d", planningDomain.ErrNotFound, crn)
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

// FindBySemester loads a semester's catalog ordered by course code.
func (r *PostgresCourseRepository) FindBySemester(ctx context.Context, semester string) ([]*domain.Course, error) {
	execer := sharedPersistence.Executor(ctx, r.pool)
	rows, err := execer.Query(ctx, courseColumns+` WHERE semester = $1 ORDER BY code, section`, semester)
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

// Delete removes the course; registrations and lecture events cascade.
func (r *PostgresCourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	execer := sharedPersistence.Executor(ctx, r.pool)
	tag, err := execer.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: course %s", planningDomain.ErrNotFound, id)
	}
	return nil
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var (
		id                                      uuid.UUID
		code, name                              string
		crn, section, credits                   int32
		actualEnrollment, maxEnrollment         int32
		instructor, semester                    string
		timetableJSON                           []byte
		createdAt, updatedAt                    time.Time
	)
	err := row.Scan(
		&id, &code, &name, &crn, &section, &credits, &actualEnrollment,
		&maxEnrollment, &instructor, &semester, &timetableJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var timetable domain.Timetable
	if len(timetableJSON) > 0 {
		if err := json.Unmarshal(timetableJSON, &timetable); err != nil {
			return nil, fmt.Errorf("decode timetable: %w", err)
		}
	}

	return domain.RehydrateCourse(
		id, code, name, int(crn), int(section), int(credits),
		int(actualEnrollment), int(maxEnrollment), instructor, semester,
		timetable, createdAt, updatedAt,
	), nil
}
