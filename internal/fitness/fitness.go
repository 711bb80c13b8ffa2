package fitness

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"adhocnet/internal/network"
)

var ErrUnknownFunction = errors.New("unknown fitness function")

type Direction int

const (
	Maximize Direction = iota
	Minimize
)

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Valid reports whether a score can take part in comparisons. Under Minimize
// a non-positive score means nothing was measured.
func (d Direction) Valid(score float64) bool {
	return d == Maximize || score > 0
}

// Better reports whether a beats b. Invalid scores never beat anything and
// lose to every valid score.
func (d Direction) Better(a, b float64) bool {
	if !d.Valid(a) {
		return false
	}
	if !d.Valid(b) {
		return true
	}
	if d == Minimize {
		return a < b
	}
	return a > b
}

// Function scores a network. Implementations must be pure: the same network
// always yields the same score.
type Function interface {
	Name() string
	Direction() Direction
	Evaluate(*network.Network) float64
}

type strategy struct {
	name      string
	direction Direction
	evaluate  func(*network.Network) float64
}

func (s strategy) Name() string                        { return s.name }
func (s strategy) Direction() Direction                { return s.direction }
func (s strategy) Evaluate(n *network.Network) float64 { return s.evaluate(n) }

func New(name string, direction Direction, evaluate func(*network.Network) float64) Function {
	return strategy{name: name, direction: direction, evaluate: evaluate}
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Function{}
)

func init() {
	for _, fn := range []Function{
		Edges(),
		FewestComponents(),
		SumSquareComponents(),
		AvgPathLength(),
		HarmonicPathLength(),
	} {
		registry[fn.Name()] = fn
	}
}

// Register adds or replaces a named fitness function.
func Register(fn Function) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fn.Name()] = fn
}

func Resolve(name string) (Function, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return fn, nil
}

func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
