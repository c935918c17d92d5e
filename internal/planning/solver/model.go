package solver

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/studora/studora/internal/planning/domain"
	"github.com/studora/studora/internal/timegrid"
)

// priorityAlpha weights the priority-scaled earliness term of the objective.
const priorityAlpha = 1.0 / 16.0

// excessWeight penalizes each hour of daily overload far above earliness.
const excessWeight = 100.0

// session is one placeable interval within the model.
type session struct {
	taskID   uuid.UUID
	taskPos  int
	index    int
	global   int
	durSlots int
	lo, hi   int
	priority int
	isStudy  bool
	// deps are task positions whose every session must start strictly
	// before this one.
	deps        []int
	allowedDays map[time.Weekday]bool
}

// model is the fully-expanded CP model for one solve pass.
type model struct {
	grid     timegrid.Grid
	blocked  []bool
	sessions []*session
	// sessionsByTask maps task position to its sessions in index order.
	sessionsByTask [][]*session
	capSlots       int
	minGap         int
	slotHours      float64
	// bias holds the per-slot profile bonus subtracted from the objective.
	bias    []float64
	maxBias float64
}

type modelParams struct {
	slotMinutes    int
	horizonDays    int
	nightStartHour int
	nightEndHour   int
	maxHoursPerDay float64
	minGapSlots    int
	relaxNight     bool
	now            time.Time
}

func buildModel(input Input, p modelParams) (*model, error) {
	weekStart := input.WeekStart
	if weekStart.IsZero() {
		weekStart = p.now
	}
	weekStart = weekStart.UTC()

	earliest := floorToMidnight(weekStart)
	latest := endOfDay(weekStart.Add(time.Duration(p.horizonDays) * 24 * time.Hour))

	for _, f := range input.Fixed {
		if s := floorToMidnight(f.Start); s.Before(earliest) {
			earliest = s
		}
		if e := endOfDay(f.End); e.After(latest) {
			latest = e
		}
	}
	for _, t := range input.Tasks {
		if t.StartDate != nil {
			if s := floorToMidnight(*t.StartDate); s.Before(earliest) {
				earliest = s
			}
		}
		if t.EndDate != nil {
			if e := endOfDay(*t.EndDate); e.After(latest) {
				latest = e
			}
		}
	}

	grid, err := timegrid.New(earliest, latest.Sub(earliest), p.slotMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	n := grid.Count()

	ordered, err := orderTasks(input.Tasks)
	if err != nil {
		return nil, err
	}

	taskPos := make(map[uuid.UUID]int, len(ordered))
	for pos, t := range ordered {
		taskPos[t.ID] = pos
	}

	m := &model{
		grid:           grid,
		blocked:        make([]bool, n),
		sessionsByTask: make([][]*session, len(ordered)),
		capSlots:       int(math.Round(p.maxHoursPerDay * 60 / float64(p.slotMinutes))),
		minGap:         p.minGapSlots,
		slotHours:      float64(p.slotMinutes) / 60.0,
	}

	// Rasterize immovable intervals.
	for _, f := range input.Fixed {
		if !f.Start.Before(f.End) {
			return nil, fmt.Errorf("%w: fixed interval %s start must precede end", domain.ErrInvalidInput, f.ID)
		}
		from := grid.Index(f.Start)
		to := grid.IndexCeil(f.End)
		for i := max(from, 0); i < min(to, n); i++ {
			m.blocked[i] = true
		}
	}

	// Night window.
	if !p.relaxNight {
		for i := 0; i < n; i++ {
			h := grid.At(i).Hour()
			if h >= p.nightStartHour || h < p.nightEndHour {
				m.blocked[i] = true
			}
		}
	}

	weekStartIdx := grid.IndexCeil(weekStart)
	if weekStartIdx < 0 {
		weekStartIdx = 0
	}

	for pos, t := range ordered {
		if t.SessionHours <= 0 || t.TotalHours <= 0 {
			return nil, fmt.Errorf("%w: task %s has non-positive hours", domain.ErrInvalidInput, t.ID)
		}

		durSlots := int(math.Ceil(t.SessionHours * 60 / float64(p.slotMinutes)))
		count := int(math.Ceil(t.TotalHours / t.SessionHours))
		if count < 1 {
			count = 1
		}

		lo := weekStartIdx
		if t.StartDate != nil {
			if idx := grid.IndexCeil(*t.StartDate); idx > lo {
				lo = idx
			}
		}
		hi := n - durSlots
		if t.EndDate != nil {
			if idx := grid.Index(*t.EndDate) - durSlots; idx < hi {
				hi = idx
			}
		}
		if hi < lo {
			return nil, &domain.NoWindowError{TaskID: t.ID}
		}

		deps := make([]int, 0, len(t.Dependencies))
		for _, depID := range t.Dependencies {
			depPos, ok := taskPos[depID]
			if !ok {
				return nil, fmt.Errorf("%w: task %s depends on unknown task %s", domain.ErrInvalidInput, t.ID, depID)
			}
			deps = append(deps, depPos)
		}

		var allowed map[time.Weekday]bool
		if len(t.AllowedDays) > 0 {
			allowed = make(map[time.Weekday]bool, len(t.AllowedDays))
			for _, d := range t.AllowedDays {
				allowed[d] = true
			}
		}

		for i := 0; i < count; i++ {
			s := &session{
				taskID:      t.ID,
				taskPos:     pos,
				index:       i,
				global:      len(m.sessions),
				durSlots:    durSlots,
				lo:          lo,
				hi:          hi,
				priority:    t.Priority,
				isStudy:     t.IsStudy,
				deps:        deps,
				allowedDays: allowed,
			}
			m.sessions = append(m.sessions, s)
			m.sessionsByTask[pos] = append(m.sessionsByTask[pos], s)
		}
	}

	m.buildBias(input.Weights)

	return m, nil
}

// buildBias precomputes the per-slot profile bonus.
func (m *model) buildBias(w *ProfileWeights) {
	n := m.grid.Count()
	m.bias = make([]float64, n)
	if w == nil || w.Beta == 0 {
		return
	}
	for i := 0; i < n; i++ {
		at := m.grid.At(i)
		sw, ok := w.SlotWeights[timegrid.SlotKey(at)]
		if !ok {
			sw = 0.5
		}
		mult, ok := w.DayMultipliers[at.Weekday().String()]
		if !ok {
			mult = 1.0
		}
		m.bias[i] = w.Beta * sw * mult
		if m.bias[i] > m.maxBias {
			m.maxBias = m.bias[i]
		}
	}
}

// startCost is the objective contribution of starting session s at slot.
func (m *model) startCost(s *session, slot int) float64 {
	return float64(slot) + priorityAlpha*float64(s.priority)*float64(slot) - m.bias[slot]
}

// orderTasks topologically sorts the dependency DAG and, within the partial
// order, prefers earlier deadlines, then higher priority, then task id.
func orderTasks(tasks []FlexibleTask) ([]FlexibleTask, error) {
	byID := make(map[uuid.UUID]int, len(tasks))
	for i, t := range tasks {
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %s", domain.ErrInvalidInput, t.ID)
		}
		byID[t.ID] = i
	}

	indegree := make([]int, len(tasks))
	dependents := make([][]int, len(tasks))
	for i, t := range tasks {
		for _, depID := range t.Dependencies {
			j, ok := byID[depID]
			if !ok {
				return nil, fmt.Errorf("%w: task %s depends on unknown task %s", domain.ErrInvalidInput, t.ID, depID)
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	less := func(a, b FlexibleTask) bool {
		da, db := taskDeadline(a), taskDeadline(b)
		if !da.Equal(db) {
			return da.Before(db)
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID.String() < b.ID.String()
	}

	ready := make([]int, 0, len(tasks))
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]FlexibleTask, 0, len(tasks))
	for len(ready) > 0 {
		sort.Slice(ready, func(x, y int) bool { return less(tasks[ready[x]], tasks[ready[y]]) })
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, tasks[next])
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(tasks) {
		return nil, fmt.Errorf("%w: dependency cycle among tasks", domain.ErrInvalidInput)
	}

	return ordered, nil
}

func taskDeadline(t FlexibleTask) time.Time {
	if t.EndDate != nil {
		return t.EndDate.UTC()
	}
	// No deadline sorts last.
	return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
}

func floorToMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	return floorToMidnight(t).Add(24 * time.Hour)
}
