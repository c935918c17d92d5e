package solver

import (
	"context"
	"math"
	"sort"
	"time"
)

const deadlineCheckInterval = 512

// searcher runs a depth-first branch-and-bound over session start slots.
// Candidates are tried cheapest-first, so the first completed descent is the
// greedy earliest-fit assignment and later descents only improve on it.
type searcher struct {
	m        *model
	occupied []bool
	dayLoad  []int
	placed   []int

	cost     float64
	best     []int
	bestCost float64
	found    bool

	// lbSuffix[i] is a lower bound on the cost of sessions i..end.
	lbSuffix []float64

	nodes     int
	deadline  time.Time
	ctx       context.Context
	exhausted bool
}

func newSearcher(ctx context.Context, m *model, deadline time.Time) *searcher {
	n := m.grid.Count()
	days := m.grid.DayOf(n-1) + 1

	s := &searcher{
		m:        m,
		occupied: make([]bool, n),
		dayLoad:  make([]int, days),
		placed:   make([]int, len(m.sessions)),
		bestCost: math.Inf(1),
		deadline: deadline,
		ctx:      ctx,
	}
	for i := range s.placed {
		s.placed[i] = -1
	}

	s.lbSuffix = make([]float64, len(m.sessions)+1)
	for i := len(m.sessions) - 1; i >= 0; i-- {
		sess := m.sessions[i]
		lb := float64(sess.lo)*(1+priorityAlpha*float64(sess.priority)) - m.maxBias
		s.lbSuffix[i] = s.lbSuffix[i+1] + lb
	}

	return s
}

// run explores the tree. It returns context/deadline errors only; feasibility
// is reported through found/exhausted.
func (s *searcher) run() error {
	err := s.dfs(0)
	if err == nil {
		s.exhausted = true
	}
	if err == errBudget {
		err = nil
	}
	return err
}

// errBudget signals the wall clock expired; the incumbent (if any) stands.
var errBudget = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string { return "search budget exhausted" }

func (s *searcher) dfs(i int) error {
	if i == len(s.m.sessions) {
		if s.cost < s.bestCost {
			s.bestCost = s.cost
			s.best = append(s.best[:0], s.placed...)
			s.found = true
		}
		return nil
	}

	sess := s.m.sessions[i]
	effLo := s.effectiveLow(sess)

	type candidate struct {
		slot  int
		delta float64
	}
	var candidates []candidate
	for slot := effLo; slot <= sess.hi; slot++ {
		if !s.fits(sess, slot) {
			continue
		}
		delta := s.m.startCost(sess, slot) + excessWeight*s.excessDeltaHours(sess, slot)
		candidates = append(candidates, candidate{slot: slot, delta: delta})
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].delta != candidates[b].delta {
			return candidates[a].delta < candidates[b].delta
		}
		return candidates[a].slot < candidates[b].slot
	})

	for _, c := range candidates {
		s.nodes++
		if s.nodes%deadlineCheckInterval == 0 {
			if err := s.ctx.Err(); err != nil {
				return err
			}
			if !s.deadline.IsZero() && time.Now().After(s.deadline) {
				return errBudget
			}
		}

		if s.found && s.cost+c.delta+s.lbSuffix[i+1] >= s.bestCost {
			// Candidates are cost-ordered, so everything after prunes too.
			break
		}

		s.place(i, sess, c.slot)
		err := s.dfs(i + 1)
		s.unplace(i, sess, c.slot)
		if err != nil {
			return err
		}
	}

	return nil
}

// effectiveLow tightens the window low bound with intra-task spacing and
// dependency ordering.
func (s *searcher) effectiveLow(sess *session) int {
	lo := sess.lo

	if sess.index > 0 {
		prev := s.m.sessionsByTask[sess.taskPos][sess.index-1]
		prevStart := s.placed[prev.global]
		if next := prevStart + prev.durSlots + s.m.minGap; next > lo {
			lo = next
		}
	}

	for _, depPos := range sess.deps {
		for _, dep := range s.m.sessionsByTask[depPos] {
			depStart := s.placed[dep.global]
			if next := depStart + 1; next > lo {
				lo = next
			}
		}
	}

	return lo
}

func (s *searcher) fits(sess *session, slot int) bool {
	if sess.allowedDays != nil {
		if !sess.allowedDays[s.m.grid.At(slot).Weekday()] {
			return false
		}
	}
	for k := slot; k < slot+sess.durSlots; k++ {
		if k >= s.m.grid.Count() || s.m.blocked[k] || s.occupied[k] {
			return false
		}
	}
	return true
}

// excessDeltaHours computes the daily-cap penalty increase of a placement.
func (s *searcher) excessDeltaHours(sess *session, slot int) float64 {
	added := map[int]int{}
	for k := slot; k < slot+sess.durSlots; k++ {
		added[s.m.grid.DayOf(k)]++
	}
	var deltaSlots int
	for day, n := range added {
		old := s.dayLoad[day]
		deltaSlots += excessOf(old+n, s.m.capSlots) - excessOf(old, s.m.capSlots)
	}
	return float64(deltaSlots) * s.m.slotHours
}

func excessOf(load, cap int) int {
	if load > cap {
		return load - cap
	}
	return 0
}

func (s *searcher) place(i int, sess *session, slot int) {
	s.cost += s.m.startCost(sess, slot) + excessWeight*s.excessDeltaHours(sess, slot)
	for k := slot; k < slot+sess.durSlots; k++ {
		s.occupied[k] = true
		s.dayLoad[s.m.grid.DayOf(k)]++
	}
	s.placed[i] = slot
}

func (s *searcher) unplace(i int, sess *session, slot int) {
	for k := slot; k < slot+sess.durSlots; k++ {
		s.occupied[k] = false
		s.dayLoad[s.m.grid.DayOf(k)]--
	}
	s.placed[i] = -1
	// Recompute cost by subtracting the same delta added in place.
	s.cost -= s.m.startCost(sess, slot) + excessWeight*s.excessDeltaHours(sess, slot)
}
