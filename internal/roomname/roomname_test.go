package roomname

import (
	"strings"
	"testing"
)

func TestGenerateShape(t *testing.T) {
	known := make(map[string]bool)
	for _, list := range pools {
		for _, w := range list {
			known[w] = true
		}
	}

	for i := 0; i < 100; i++ {
		name, err := Generate(nil)
		if err != nil {
			t.Fatal(err)
		}
		words := strings.Split(name, "-")
		if len(words) != Words {
			t.Fatalf("%q has %d words, want %d", name, len(words), Words)
		}
		for _, w := range words {
			if !known[w] {
				t.Fatalf("%q contains unknown word %q", name, w)
			}
		}
	}
}

func TestGenerateSkipsTaken(t *testing.T) {
	var seen []string
	name, err := Generate(func(candidate string) bool {
		seen = append(seen, candidate)
		return len(seen) < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 || name != seen[2] {
		t.Errorf("Generate returned %q after %d attempts %v", name, len(seen), seen)
	}
}

func TestGenerateGivesUp(t *testing.T) {
	calls := 0
	name, err := Generate(func(string) bool {
		calls++
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != maxAttempts || name == "" {
		t.Errorf("calls = %d, name = %q", calls, name)
	}
}
