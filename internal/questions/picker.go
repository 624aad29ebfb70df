package questions

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

type lockedPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPicker returns a concurrency-safe uniform picker. A zero seed draws a
// seed from crypto/rand; any other seed makes selection reproducible.
func NewPicker(seed uint64) Picker {
	if seed == 0 {
		seed = newSeed()
	}

	return &lockedPicker{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *lockedPicker) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.IntN(n)
}

func newSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}
