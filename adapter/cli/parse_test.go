package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	planningDomain "github.com/studora/studora/internal/planning/domain"
)

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays("mon,Wed, friday")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, days)

	days, err = ParseWeekdays("")
	require.NoError(t, err)
	assert.Nil(t, days)

	_, err = ParseWeekdays("mon,xyz")
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2026-09-07")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC), date)

	_, err = ParseDate("07.09.2026")
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)
}

func TestParseDateTimeAcceptsBothLayouts(t *testing.T) {
	want := time.Date(2026, time.September, 7, 20, 30, 0, 0, time.UTC)

	got, err := ParseDateTime("2026-09-07T20:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseDateTime("2026-09-07 20:30")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseDateTime("tomorrow")
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCodeFor(nil))
	assert.Equal(t, ExitInvalidInput, ExitCodeFor(fmt.Errorf("wrapped: %w", planningDomain.ErrInvalidInput)))
	assert.Equal(t, ExitInvalidInput, ExitCodeFor(planningDomain.ErrNotFound))
	assert.Equal(t, ExitInfeasible, ExitCodeFor(fmt.Errorf("solve: %w", planningDomain.ErrInfeasible)))
	assert.Equal(t, ExitSolverTimeout, ExitCodeFor(planningDomain.ErrSolverTimeout))
	assert.Equal(t, ExitPersistence, ExitCodeFor(fmt.Errorf("apply: %w", planningDomain.ErrPersistence)))
	assert.Equal(t, ExitError, ExitCodeFor(errors.New("something else")))
}

func TestResolveStudentIDFlagBeatsEnvironment(t *testing.T) {
	SetApp(nil)
	t.Cleanup(func() { SetApp(nil) })

	_, err := ResolveStudentID("")
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)

	_, err = ResolveStudentID("not-a-uuid")
	assert.ErrorIs(t, err, planningDomain.ErrInvalidInput)

	id, err := ResolveStudentID("a2e8a27a-5bb1-4a9f-9be2-6f62bd7d73be")
	require.NoError(t, err)
	assert.Equal(t, "a2e8a27a-5bb1-4a9f-9be2-6f62bd7d73be", id.String())
}
