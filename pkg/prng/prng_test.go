package prng

import (
	"strings"
	"testing"
)

func TestSameSeedSameStream(t *testing.T) {
	var seed Seed
	seed[0] = 1
	a, b := New(seed), New(seed)
	for i := 0; i < 100; i++ {
		if a.State() != b.State() {
			t.Fatalf("draw %d differs for equal seeds", i)
		}
	}
	if a.Tweakey() != b.Tweakey() {
		t.Fatalf("tweakey draws differ for equal seeds")
	}
}

func TestCellsStayInRange(t *testing.T) {
	src := New(Seed{})
	seen := make(map[uint8]bool)
	for i := 0; i < 4096; i++ {
		c := src.Cell()
		if c > 0xf {
			t.Fatalf("cell %d out of range", c)
		}
		seen[uint8(c)] = true
	}
	if len(seen) != 16 {
		t.Fatalf("only %d of 16 nibble values drawn", len(seen))
	}
}

func TestSeedFromOS(t *testing.T) {
	a, err := SeedFromOS()
	if err != nil {
		t.Fatalf("SeedFromOS: %v", err)
	}
	b, err := SeedFromOS()
	if err != nil {
		t.Fatalf("SeedFromOS: %v", err)
	}
	if a == b {
		t.Fatalf("two OS seeds are equal: %s", a)
	}
}

func TestParseSeed(t *testing.T) {
	var seed Seed
	for i := range seed {
		seed[i] = byte(i)
	}
	got, err := ParseSeed(seed.String())
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if got != seed {
		t.Fatalf("ParseSeed(String()) = %s", got)
	}
	if _, err := ParseSeed("abcd"); err == nil {
		t.Fatalf("short seed accepted")
	}
	if _, err := ParseSeed(strings.Repeat("zz", SeedSize)); err == nil {
		t.Fatalf("non-hex seed accepted")
	}
}

func TestChoice(t *testing.T) {
	src := New(Seed{2})
	from := []int{3, 9}
	for i := 0; i < 50; i++ {
		if c := src.Choice(from); c != 3 && c != 9 {
			t.Fatalf("Choice returned %d", c)
		}
	}
}
