// Package roomname makes short, memorable room names such as
// "plucky-heron-cello-meadow" for people who have to read one aloud.
package roomname

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Words is how many words a generated name has.
const Words = 4

// maxAttempts bounds the retry loop when exists keeps rejecting names.
const maxAttempts = 64

// Generate returns a name built from Words distinct word lists. exists may
// be nil; when set, names it reports as taken are skipped. After
// maxAttempts collisions the last candidate is returned regardless.
func Generate(exists func(string) bool) (string, error) {
	var name string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		next, err := candidate()
		if err != nil {
			return "", err
		}
		name = next
		if exists == nil || !exists(name) {
			break
		}
	}
	return name, nil
}

func candidate() (string, error) {
	// Pick Words lists without replacement by shuffling indices.
	order := make([]int, len(pools))
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		order[i], order[j] = order[j], order[i]
	}

	words := make([]string, Words)
	for i := 0; i < Words; i++ {
		list := pools[order[i]]
		n, err := randomIndex(len(list))
		if err != nil {
			return "", err
		}
		words[i] = list[n]
	}
	return strings.Join(words, "-"), nil
}

// randomIndex returns a cryptographically secure random index in [0, max).
func randomIndex(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
