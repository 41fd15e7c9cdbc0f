package date

import "testing"

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// appending two values in reverse order must keep the history sorted.
	h.Append(d1, v1)
	if h.Len() != 1 {
		t.Errorf("Append(d1, v1).Len() = %v want 1", h.Len())
	}

	h.Append(d2, v2)
	if h.Len() != 2 {
		t.Errorf("Append(d2, v2).Len() = %v want 2", h.Len())
	}

	if h.days[0] != d2 || h.values[0] != v2 {
		t.Errorf("history[0] = %v %q, want %v %q", h.days[0], h.values[0], d2, v2)
	}
	if h.days[1] != d1 || h.values[1] != v1 {
		t.Errorf("history[1] = %v %q, want %v %q", h.days[1], h.values[1], d1, v1)
	}

	h.Append(d2, "replaced")
	if got, _ := h.Get(d2); got != "replaced" || h.Len() != 2 {
		t.Errorf("Append() on an existing day = %q (len %d), want %q (len 2)", got, h.Len(), "replaced")
	}
}

func TestValueAsOf(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2024, 1, 2), 100).Append(New(2024, 1, 5), 110)

	testCases := []struct {
		on     Date
		want   float64
		wantOK bool
	}{
		{New(2024, 1, 1), 0, false},
		{New(2024, 1, 2), 100, true},
		{New(2024, 1, 4), 100, true},
		{New(2024, 1, 5), 110, true},
		{New(2024, 2, 1), 110, true},
	}
	for _, tc := range testCases {
		got, ok := h.ValueAsOf(tc.on)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ValueAsOf(%v) = %v, %v, want %v, %v", tc.on, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestFillForward(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2024, 1, 1), 90) // before the range, must not leak in
	h.Append(New(2024, 1, 3), 100)
	h.Append(New(2024, 1, 5), 110)

	got := FillForward(h, Range{From: New(2024, 1, 2), To: New(2024, 1, 6)})
	want := []float64{0, 100, 100, 110, 110}
	if len(got) != len(want) {
		t.Fatalf("FillForward() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FillForward()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSinceAndMap(t *testing.T) {
	h := new(History[float64])
	h.Append(New(2024, 1, 1), 1).Append(New(2024, 1, 2), 2).Append(New(2024, 1, 3), 3)

	since := h.Since(New(2024, 1, 2))
	if since.Len() != 2 {
		t.Fatalf("Since().Len() = %d, want 2", since.Len())
	}
	doubled := Map(since, func(_ Date, v float64) (float64, bool) { return 2 * v, v != 3 })
	if doubled.Len() != 1 {
		t.Fatalf("Map().Len() = %d, want 1", doubled.Len())
	}
	if day, v := doubled.Latest(); day != New(2024, 1, 2) || v != 4 {
		t.Errorf("Map().Latest() = %v %v, want 2024-01-02 4", day, v)
	}
	if h.Len() != 3 {
		t.Errorf("Since() modified its receiver")
	}
}
