package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	planningDomain "github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/roster/domain"
	"github.com/studora/studora/internal/shared/infrastructure/database"
)

const sqliteCourseColumns = `
	SELECT id, code, name, crn, section, credits, actual_enrollment,
	       max_enrollment, instructor, semester, timetable, created_at, updated_at
	FROM courses
`

// Catalog syncs key the upsert on the registrar CRN so a section keeps its
// identity across runs.
const sqliteUpsertCourse = `
	INSERT INTO courses (
		id, code, name, crn, section, credits, actual_enrollment,
		max_enrollment, instructor, semester, timetable, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (crn) DO UPDATE SET
		code = excluded.code,
		name = excluded.name,
		section = excluded.section,
		credits = excluded.credits,
		actual_enrollment = excluded.actual_enrollment,
		max_enrollment = excluded.max_enrollment,
		instructor = excluded.instructor,
		semester = excluded.semester,
		timetable = excluded.timetable,
		updated_at = excluded.updated_at
`

// SQLiteCourseRepository implements domain.CourseRepository using SQLite.
type SQLiteCourseRepository struct {
	db *sql.DB
}

// NewSQLiteCourseRepository creates a new repository.
func NewSQLiteCourseRepository(db *sql.DB) *SQLiteCourseRepository {
	return &SQLiteCourseRepository{db: db}
}

// Save upserts the course.
func (r *SQLiteCourseRepository) Save(ctx context.Context, course *domain.Course) error {
	timetable, err := json.Marshal(course.Timetable())
	if err != nil {
		return fmt.Errorf("encode timetable: %w", err)
	}

	_, err = sqliteExec(ctx, r.db).ExecContext(ctx, sqliteUpsertCourse,
		course.ID().String(),
		course.Code(),
		course.Name(),
		course.CRN(),
		course.Section(),
		course.Credits(),
		course.ActualEnrollment(),
		course.MaxEnrollment(),
		course.Instructor(),
		course.Semester(),
		string(timetable),
		sqliteTime(course.CreatedAt()),
		sqliteTime(course.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	return nil
}

// FindByID loads one course.
func (r *SQLiteCourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteCourseColumns+` WHERE id = ?`, id.String())
	course, err := scanSQLiteCourse(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: course %s", planningDomain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

// FindByCRN loads a course by its registrar reference number.
func (r *SQLiteCourseRepository) FindByCRN(ctx context.Context, crn int) (*domain.Course, error) {
	row := sqliteExec(ctx, r.db).QueryRowContext(ctx, sqliteCourseColumns+` WHERE crn = ?`, crn)
	course, err := scanSQLiteCourse(row.Scan)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: course with CRN %d", planningDomain.ErrNotFound, crn)
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

// FindBySemester loads a semester's catalog ordered by course code.
func (r *SQLiteCourseRepository) FindBySemester(ctx context.Context, semester string) ([]*domain.Course, error) {
	rows, err := sqliteExec(ctx, r.db).QueryContext(ctx,
		sqliteCourseColumns+` WHERE semester = ? ORDER BY code, section`, semester)
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		course, err := scanSQLiteCourse(rows.Scan)
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
func (r *SQLiteCourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := sqliteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: course %s", planningDomain.ErrNotFound, id)
	}
	return nil
}

func scanSQLiteCourse(scan func(...any) error) (*domain.Course, error) {
	var (
		id, code, name                  string
		crn, section, credits           int
		actualEnrollment, maxEnrollment int
		instructor, semester            string
		timetableJSON                   string
		createdAt, updatedAt            string
	)
	err := scan(
		&id, &code, &name, &crn, &section, &credits, &actualEnrollment,
		&maxEnrollment, &instructor, &semester, &timetableJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var timetable domain.Timetable
	if err := json.Unmarshal([]byte(timetableJSON), &timetable); err != nil {
		return nil, fmt.Errorf("decode timetable: %w", err)
	}

	return domain.RehydrateCourse(
		parseSQLiteUUID(id), code, name, crn, section, credits,
		actualEnrollment, maxEnrollment, instructor, semester, timetable,
		parseSQLiteTime(createdAt), parseSQLiteTime(updatedAt),
	), nil
}
