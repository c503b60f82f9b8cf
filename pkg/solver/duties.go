package solver

import (
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"

	"github.com/limaJavier/exam-timetabling/pkg/model"
)

// assignDuties covers every occupied (slot, room) pair with an available
// invigilator, grouping slots into connected components of the wall-time
// overlap relation so independent parts of the timetable are covered
// independently. Within a component an invigilator may take several duties as
// long as their slots do not overlap pairwise. It fills a.Duties in place and
// reports the pairs no cover could reach: a non-empty return means the
// component admits no full cover at all.
func assignDuties(m *model.Model, a *model.Assignment) (uncovered []model.DutyKey) {
	a.Duties = make(map[model.DutyKey]uint64)
	pairs := a.OccupiedPairs()

	for _, component := range overlapComponents(m, pairs) {
		componentPairs := lo.Filter(pairs, func(key model.DutyKey, _ int) bool {
			return component[key[0]]
		})

		invigilators := make([]uint64, 0, m.NumInvigilators())
		for invigilator := uint64(0); invigilator < m.NumInvigilators(); invigilator++ {
			available := lo.SomeBy(componentPairs, func(key model.DutyKey) bool {
				return m.InvigilatorAvailable(invigilator, key[0])
			})
			if available {
				invigilators = append(invigilators, invigilator)
			}
		}

		// Fast path: a bipartite matching covering the whole component is
		// already a valid cover (every invigilator serves at most once).
		matched, missing := matchComponent(m, componentPairs, invigilators)
		if len(missing) > 0 {
			// Overlap is not transitive: a component chained through a middle
			// slot can still have non-overlapping ends, so one invigilator may
			// legally serve both. Matching cannot express reuse; search
			// exhaustively before declaring the component uncoverable.
			if cover, ok := coverComponent(m, componentPairs, invigilators); ok {
				matched, missing = cover, nil
			} else {
				extendCover(m, matched, missing, invigilators)
				missing = lo.Filter(componentPairs, func(key model.DutyKey, _ int) bool {
					_, covered := matched[key]
					return !covered
				})
			}
		}

		for key, invigilator := range matched {
			a.Duties[key] = invigilator
		}
		uncovered = append(uncovered, missing...)
	}

	return uncovered
}

// overlapComponents groups timeslots into connected components of the
// wall-time overlap relation, restricted to slots actually occupied.
func overlapComponents(m *model.Model, pairs []model.DutyKey) []map[uint64]bool {
	slots := lo.Uniq(lo.Map(pairs, func(key model.DutyKey, _ int) uint64 { return key[0] }))

	assigned := make(map[uint64]bool)
	components := make([]map[uint64]bool, 0)
	for _, slot := range slots {
		if assigned[slot] {
			continue
		}
		component := map[uint64]bool{slot: true}
		assigned[slot] = true

		frontier := []uint64{slot}
		for len(frontier) > 0 {
			current := frontier[0]
			frontier = frontier[1:]
			for _, candidate := range slots {
				if !assigned[candidate] && m.Overlapping(current, candidate) {
					component[candidate] = true
					assigned[candidate] = true
					frontier = append(frontier, candidate)
				}
			}
		}
		components = append(components, component)
	}

	return components
}

func matchComponent(m *model.Model, pairs []model.DutyKey, invigilators []uint64) (matched map[model.DutyKey]uint64, uncovered []model.DutyKey) {
	matched = make(map[model.DutyKey]uint64)
	if len(pairs) == 0 {
		return matched, nil
	}

	neighbors := func(pairAny any, invigilatorAny any) (bool, error) {
		pair := pairAny.(model.DutyKey)
		invigilator := invigilatorAny.(uint64)
		return m.InvigilatorAvailable(invigilator, pair[0]), nil
	}

	pairsAny := lo.Map(pairs, func(key model.DutyKey, _ int) any { return key })
	invigilatorsAny := lo.Map(invigilators, func(invigilator uint64, _ int) any { return invigilator })

	graph, err := bipartitegraph.NewBipartiteGraph(pairsAny, invigilatorsAny, neighbors)
	if err != nil {
		return matched, pairs
	}

	covered := make(map[model.DutyKey]bool)
	for _, edge := range graph.LargestMatching() {
		pairIndex, invigilatorIndex := edge.Node1, edge.Node2-len(pairs)
		key := pairs[pairIndex]
		matched[key] = invigilators[invigilatorIndex]
		covered[key] = true
	}

	for _, key := range pairs {
		if !covered[key] {
			uncovered = append(uncovered, key)
		}
	}
	return matched, uncovered
}

// coverComponent exhaustively searches for a full cover of the component's
// duties, allowing an invigilator any set of pairwise non-overlapping slots.
// Complete: a false answer means no cover exists. Components are small (duties
// sharing a stretch of wall time), so the backtracking stays cheap.
func coverComponent(m *model.Model, pairs []model.DutyKey, invigilators []uint64) (map[model.DutyKey]uint64, bool) {
	assigned := make(map[model.DutyKey]uint64, len(pairs))

	var search func(i int) bool
	search = func(i int) bool {
		if i == len(pairs) {
			return true
		}
		pair := pairs[i]
		for _, invigilator := range invigilators {
			if !m.InvigilatorAvailable(invigilator, pair[0]) {
				continue
			}
			if dutyConflict(m, assigned, pairs[:i], invigilator, pair[0]) {
				continue
			}
			assigned[pair] = invigilator
			if search(i + 1) {
				return true
			}
			delete(assigned, pair)
		}
		return false
	}

	if search(0) {
		return assigned, true
	}
	return nil, false
}

// extendCover greedily hands leftover duties to any invigilator compatible
// with the duties already assigned. Only reached when no full cover exists,
// to keep the violation count of partial covers low.
func extendCover(m *model.Model, assigned map[model.DutyKey]uint64, missing []model.DutyKey, invigilators []uint64) {
	taken := lo.Keys(assigned)
	for _, pair := range missing {
		for _, invigilator := range invigilators {
			if !m.InvigilatorAvailable(invigilator, pair[0]) {
				continue
			}
			if dutyConflict(m, assigned, taken, invigilator, pair[0]) {
				continue
			}
			assigned[pair] = invigilator
			taken = append(taken, pair)
			break
		}
	}
}

func dutyConflict(m *model.Model, assigned map[model.DutyKey]uint64, taken []model.DutyKey, invigilator uint64, slot uint64) bool {
	for _, previous := range taken {
		if other, ok := assigned[previous]; ok && other == invigilator && m.Overlapping(previous[0], slot) {
			return true
		}
	}
	return false
}
