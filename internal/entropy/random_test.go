package entropy

import "testing"

func TestSameSeedSameStream(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Intn(1000), b.Intn(1000); x != y {
			t.Fatalf("draw %d diverged: %d vs %d", i, x, y)
		}
	}
}

func TestRollBounds(t *testing.T) {
	s := New(1)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		v := s.Roll(2, 5)
		if v < 2 || v > 5 {
			t.Fatalf("Roll(2,5) = %d out of range", v)
		}
		seen[v] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected all of 2..5 to appear, saw %v", seen)
	}
	if got := s.Roll(3, 3); got != 3 {
		t.Fatalf("Roll(3,3) = %d", got)
	}
}

func TestChanceExtremes(t *testing.T) {
	s := New(3)
	for i := 0; i < 50; i++ {
		if s.Chance(0) {
			t.Fatal("Chance(0) returned true")
		}
		if !s.Chance(100) {
			t.Fatal("Chance(100) returned false")
		}
	}
}

func TestStateRestoreContinuesStream(t *testing.T) {
	s := New(99)
	for i := 0; i < 10; i++ {
		s.Intn(50)
	}
	state, err := s.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	want := []int{s.Intn(1000), s.Intn(1000), s.Intn(1000)}

	r := New(1)
	if err := r.Restore(state); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for i, w := range want {
		if got := r.Intn(1000); got != w {
			t.Fatalf("draw %d after restore = %d, want %d", i, got, w)
		}
	}
}

func TestPickEmpty(t *testing.T) {
	s := New(5)
	if _, ok := Pick[int](s, nil); ok {
		t.Fatal("Pick on empty slice reported ok")
	}
	v, ok := Pick(s, []string{"only"})
	if !ok || v != "only" {
		t.Fatalf("Pick single = %q, %v", v, ok)
	}
}
