// Package partition computes the contiguous item ranges assigned to
// scatter workers.
//
// The plan is pure arithmetic: ceil-division chunks in worker order,
// truncated at the total. For any total and worker count the ranges
// exactly cover [0, total) without overlap; workers past the point
// where the chunks exhaust the items receive empty ranges.
package partition

// Range is a half-open range [Start, Start+Count) of global item
// indices assigned to one worker. Computed once at worker startup and
// immutable thereafter.
type Range struct {
	Start int
	Count int
}

// End returns the exclusive upper bound Start+Count.
func (r Range) End() int { return r.Start + r.Count }

// Empty reports whether the range holds no items.
func (r Range) Empty() bool { return r.Count == 0 }

// Plan returns the range of worker id out of workers for total items.
//
// chunk = ceil(total/workers); worker id covers
// [id*chunk, min((id+1)*chunk, total)). Deterministic and
// side-effect-free; total == 0 or an id past the tail yields an empty
// range, never a fault.
func Plan(total, workers, id int) Range {
	if total <= 0 || workers <= 0 || id < 0 || id >= workers {
		return Range{}
	}
	chunk := (total + workers - 1) / workers
	start := id * chunk
	if start >= total {
		return Range{}
	}
	end := start + chunk
	if end > total {
		end = total
	}
	return Range{Start: start, Count: end - start}
}

// PlanAll returns the ranges of all workers in worker order.
func PlanAll(total, workers int) []Range {
	if workers <= 0 {
		return nil
	}
	ranges := make([]Range, workers)
	for id := range workers {
		ranges[id] = Plan(total, workers, id)
	}
	return ranges
}
