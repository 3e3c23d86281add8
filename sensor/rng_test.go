package sensor

import "testing"

func TestUniformBounds(t *testing.T) {
	rng := NewRNG(7)
	for _, n := range []int{1, 2, 3, 10, 16, 100} {
		for i := 0; i < 1000; i++ {
			if v := rng.Uniform(n); v >= uint32(n) {
				t.Fatalf("Uniform(%d) returned %d", n, v)
			}
		}
	}
	if v := rng.Uniform(0); v != 0 {
		t.Fatalf("Uniform(0) should return 0, got %d", v)
	}
	if v := rng.Uniform(-5); v != 0 {
		t.Fatalf("Uniform(-5) should return 0, got %d", v)
	}
}

func TestZeroSeedFallback(t *testing.T) {
	rng := NewRNG(0)
	seen := false
	for i := 0; i < 10; i++ {
		if rng.Uniform(1000) != 0 {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("zero-seeded generator appears stuck")
	}
}

func TestDeterministicSequence(t *testing.T) {
	a, b := NewRNG(12345), NewRNG(12345)
	for i := 0; i < 100; i++ {
		if a.Uniform(1 << 20) != b.Uniform(1 << 20) {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestOneIn(t *testing.T) {
	rng := NewRNG(9)
	if !rng.OneIn(1) {
		t.Fatalf("OneIn(1) must always be true")
	}
	if rng.OneIn(0) {
		t.Fatalf("OneIn(0) must be false")
	}
	hits := 0
	for i := 0; i < 10000; i++ {
		if rng.OneIn(100) {
			hits++
		}
	}
	if hits == 0 || hits > 1000 {
		t.Fatalf("OneIn(100) hit rate implausible: %d/10000", hits)
	}
}

func TestSkewedBounds(t *testing.T) {
	rng := NewRNG(3)
	for i := 0; i < 1000; i++ {
		if v := rng.Skewed(8); v >= 1<<8 {
			t.Fatalf("Skewed(8) returned %d", v)
		}
	}
	if v := rng.Skewed(-1); v != 0 {
		t.Fatalf("Skewed(-1) should return 0, got %d", v)
	}
}
