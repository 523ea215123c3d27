package partition

import "testing"

// =============================================================================
// Plan Tests
// =============================================================================

func TestPlan_EvenSplit(t *testing.T) {
	// 16 items over 4 workers: 4 each.
	for id := range 4 {
		r := Plan(16, 4, id)
		if r.Start != id*4 || r.Count != 4 {
			t.Errorf("Plan(16, 4, %d) = %+v, want {Start:%d Count:4}", id, r, id*4)
		}
	}
}

func TestPlan_UnevenSplit(t *testing.T) {
	// 10 items over 3 workers: ceil(10/3) = 4, sizes {4, 4, 2}.
	wantCounts := []int{4, 4, 2}
	for id, want := range wantCounts {
		r := Plan(10, 3, id)
		if r.Count != want {
			t.Errorf("Plan(10, 3, %d).Count = %d, want %d", id, r.Count, want)
		}
	}
}

func TestPlan_FewerItemsThanWorkers(t *testing.T) {
	// 3 items over 8 workers: chunk = 1, workers 3..7 are no-ops.
	for id := range 8 {
		r := Plan(3, 8, id)
		if id < 3 {
			if r.Start != id || r.Count != 1 {
				t.Errorf("Plan(3, 8, %d) = %+v, want {Start:%d Count:1}", id, r, id)
			}
		} else if !r.Empty() {
			t.Errorf("Plan(3, 8, %d) = %+v, want empty", id, r)
		}
	}
}

func TestPlan_ZeroItems(t *testing.T) {
	for id := range 4 {
		if r := Plan(0, 4, id); !r.Empty() {
			t.Errorf("Plan(0, 4, %d) = %+v, want empty", id, r)
		}
	}
}

func TestPlan_DegenerateInputs(t *testing.T) {
	tests := []struct {
		name                string
		total, workers, id  int
	}{
		{"zero workers", 10, 0, 0},
		{"negative workers", 10, -1, 0},
		{"negative total", -5, 4, 0},
		{"id out of range", 10, 4, 4},
		{"negative id", 10, 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := Plan(tt.total, tt.workers, tt.id); !r.Empty() {
				t.Errorf("Plan(%d, %d, %d) = %+v, want empty", tt.total, tt.workers, tt.id, r)
			}
		})
	}
}

// =============================================================================
// Cover Properties
// =============================================================================

func TestPlanAll_ExactDisjointCover(t *testing.T) {
	totals := []int{0, 1, 2, 3, 7, 8, 9, 10, 100, 1000, 2047, 2048, 2049}
	workerCounts := []int{1, 2, 3, 7, 8, 16}

	for _, total := range totals {
		for _, workers := range workerCounts {
			ranges := PlanAll(total, workers)
			chunk := 0
			if workers > 0 {
				chunk = (total + workers - 1) / workers
			}

			next := 0
			sum := 0
			for id, r := range ranges {
				if r.Empty() {
					continue
				}
				if r.Start != next {
					t.Fatalf("total=%d workers=%d: worker %d starts at %d, want %d (gap or overlap)",
						total, workers, id, r.Start, next)
				}
				if r.Count > chunk {
					t.Fatalf("total=%d workers=%d: worker %d count %d exceeds chunk %d",
						total, workers, id, r.Count, chunk)
				}
				next = r.End()
				sum += r.Count
			}
			if sum != total {
				t.Fatalf("total=%d workers=%d: counts sum to %d", total, workers, sum)
			}
			if next != total && total > 0 {
				t.Fatalf("total=%d workers=%d: cover ends at %d", total, workers, next)
			}
		}
	}
}
