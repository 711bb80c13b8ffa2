package evo

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"adhocnet/internal/network"
)

// Agent is one individual of the population. Its fitness is stale after any
// change to the network until the next evaluation.
type Agent struct {
	ID        string
	Network   *network.Network
	Fitness   float64
	Evaluated bool

	seed int64
}

// newAgent draws an id and a network seed from rng. The caller attaches a
// network built on a.source().
func newAgent(rng *rand.Rand) (*Agent, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return nil, fmt.Errorf("agent id: %w", err)
	}
	return &Agent{ID: id.String(), seed: rng.Int63()}, nil
}

func (a *Agent) source() *rand.Rand {
	return rand.New(rand.NewSource(a.seed))
}

// Clone deep-copies the network. The copy draws from a fresh source seeded
// like the receiver.
func (a *Agent) Clone() *Agent {
	cp := *a
	cp.Network = a.Network.Clone(a.source())
	return &cp
}
