package evo

import (
	"sort"

	"adhocnet/internal/fitness"
)

// Rank orders agents best first. The sort is stable, so equal scores keep
// their population order.
func Rank(agents []*Agent, direction fitness.Direction) {
	sort.SliceStable(agents, func(i, j int) bool {
		return direction.Better(agents[i].Fitness, agents[j].Fitness)
	})
}

// Truncate ranks agents and keeps the best size of them.
func Truncate(agents []*Agent, direction fitness.Direction, size int) []*Agent {
	Rank(agents, direction)
	if len(agents) > size {
		for i := size; i < len(agents); i++ {
			agents[i] = nil
		}
		agents = agents[:size]
	}
	return agents
}
