package chore

import "testing"

func TestNextAssignee(t *testing.T) {
	members := []int64{10, 20, 30}

	tests := []struct {
		name    string
		members []int64
		current *int64
		want    *int64
	}{
		{"unassigned starts at first", members, nil, ptr(10)},
		{"first to second", members, ptr(10), ptr(20)},
		{"middle to last", members, ptr(20), ptr(30)},
		{"wraps around", members, ptr(30), ptr(10)},
		{"departed assignee restarts", members, ptr(99), ptr(10)},
		{"single member keeps it", []int64{10}, ptr(10), ptr(10)},
		{"empty group", nil, ptr(10), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAssignee(tt.members, tt.current)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %d, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("got nil, want %d", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("got %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestNextAssigneeFullCycle(t *testing.T) {
	members := []int64{1, 2, 3, 4}
	var current *int64
	counts := map[int64]int{}
	for range 12 {
		current = NextAssignee(members, current)
		counts[*current]++
	}
	for _, id := range members {
		if counts[id] != 3 {
			t.Errorf("member %d had %d turns, want 3", id, counts[id])
		}
	}
}

func TestHandoffAssignee(t *testing.T) {
	if got := HandoffAssignee([]int64{1, 2, 3}, 2); got == nil || *got != 3 {
		t.Errorf("handoff from 2 = %v, want 3", got)
	}
	if got := HandoffAssignee([]int64{1, 2, 3}, 3); got == nil || *got != 1 {
		t.Errorf("handoff from 3 = %v, want 1", got)
	}
	if got := HandoffAssignee([]int64{1}, 1); got != nil {
		t.Errorf("handoff from sole member = %d, want nil", *got)
	}
}
