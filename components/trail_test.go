package components

import "testing"

func TestTrail_AtReturnsPushOrder(t *testing.T) {
	tr := NewTrail(8, Vec2{0, 0}, Vec2{1, 0}, 1)
	for i := 1; i <= 5; i++ {
		tr.Push(Vec2{float64(i), 0})
	}
	for age := 0; age < 5; age++ {
		if got := tr.At(age).X; got != float64(5-age) {
			t.Errorf("At(%d).X = %f, want %d", age, got, 5-age)
		}
	}
}

func TestTrail_PrefillIsStraightLine(t *testing.T) {
	tr := NewTrail(6, Vec2{100, 50}, Vec2{0, 1}, 2)
	for age := 0; age < 6; age++ {
		p := tr.At(age)
		if p.X != 100 || p.Y != 50-2*float64(age) {
			t.Errorf("At(%d) = %+v, want {100 %f}", age, p, 50-2*float64(age))
		}
	}
}

func TestTrail_WrapAround(t *testing.T) {
	tr := NewTrail(4, Vec2{}, Vec2{1, 0}, 1)
	for i := 1; i <= 11; i++ {
		tr.Push(Vec2{float64(i), 0})
	}
	want := []float64{11, 10, 9, 8}
	for age, w := range want {
		if got := tr.At(age).X; got != w {
			t.Errorf("At(%d).X = %f, want %f", age, got, w)
		}
	}
	if got := tr.At(100).X; got != 8 {
		t.Errorf("out-of-range offset should clamp to oldest, got %f", got)
	}
}

func TestTrail_ReserveKeepsOrder(t *testing.T) {
	tr := NewTrail(4, Vec2{}, Vec2{1, 0}, 1)
	for i := 1; i <= 6; i++ {
		tr.Push(Vec2{float64(i), 0})
	}
	tr.Reserve(7)
	if tr.Cap() != 7 {
		t.Fatalf("Cap() = %d, want 7", tr.Cap())
	}
	want := []float64{6, 5, 4, 3, 3, 3, 3}
	for age, w := range want {
		if got := tr.At(age).X; got != w {
			t.Errorf("At(%d).X = %f, want %f", age, got, w)
		}
	}
	tr.Push(Vec2{7, 0})
	if got := tr.At(0).X; got != 7 {
		t.Errorf("push after reserve: At(0).X = %f, want 7", got)
	}
	tr.Reserve(3)
	if tr.Cap() != 7 {
		t.Errorf("Reserve should never shrink, cap = %d", tr.Cap())
	}
}
