package dag

import "testing"

func TestFlagsSetGet(t *testing.T) {
	f := NewFlags(130)
	if f.Size() != 130 {
		t.Fatalf("Size() = %d, want 130", f.Size())
	}

	for _, i := range []int{0, 63, 64, 129} {
		if f.Get(i) {
			t.Errorf("Get(%d) = true on fresh flags", i)
		}
		f.Set(i, true)
		if !f.Get(i) {
			t.Errorf("Get(%d) = false after Set(true)", i)
		}
	}
	if f.Count() != 4 {
		t.Errorf("Count() = %d, want 4", f.Count())
	}

	f.Set(63, false)
	if f.Get(63) {
		t.Error("Get(63) = true after Set(false)")
	}
	if !f.Get(64) {
		t.Error("clearing bit 63 must not touch bit 64")
	}
}

func TestFlagsSetAll(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"partial word", 5},
		{"exact word", 64},
		{"several words", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFlags(tt.size)
			f.SetAll(true)
			if got := f.Count(); got != tt.size {
				t.Errorf("Count() after SetAll(true) = %d, want %d", got, tt.size)
			}
			f.SetAll(false)
			if got := f.Count(); got != 0 {
				t.Errorf("Count() after SetAll(false) = %d, want 0", got)
			}
		})
	}
}

func TestFlagsOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Get beyond the last word should panic")
		}
	}()
	f := NewFlags(10)
	f.Get(64)
}
