package app

import (
	"math/rand"
	"sync"
	"time"
)

const (
	lobbyCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	lobbyCodeLength   = 6
)

// codeGenerator samples lobby codes uniformly over the uppercase alphanumeric
// alphabet. Uniqueness among live lobbies is enforced by the store, with the
// service retrying on collision.
type codeGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newCodeGenerator() *codeGenerator {
	return newCodeGeneratorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// newCodeGeneratorWithRand allows deterministic codes in tests.
func newCodeGeneratorWithRand(rng *rand.Rand) *codeGenerator {
	return &codeGenerator{rng: rng}
}

func (g *codeGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := make([]byte, lobbyCodeLength)
	for i := range code {
		code[i] = lobbyCodeAlphabet[g.rng.Intn(len(lobbyCodeAlphabet))]
	}
	return string(code)
}
