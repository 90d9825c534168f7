// Package dice provides the randomness abstraction and die specifications
// used by the roll engine.
package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Spec is a die specification: Count dice with Faces sides each.
type Spec struct {
	Count int
	Faces int
}

// Common specs.
var (
	D20  = Spec{Count: 1, Faces: 20}
	D100 = Spec{Count: 1, Faces: 100}
)

// String returns the spec in NdF notation, e.g. "1d20".
func (s Spec) String() string {
	return fmt.Sprintf("%dd%d", s.Count, s.Faces)
}

// DieType returns the die name without a count, e.g. "d20".
func (s Spec) DieType() string {
	return fmt.Sprintf("d%d", s.Faces)
}

// Source is the randomness provider for rolls.
// Implementations must be safe for concurrent use.
type Source interface {
	// Intn returns a random int in [0, n). n must be > 0.
	Intn(n int) int
}

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// Roll is the outcome of rolling a Spec.
type Roll struct {
	Spec  Spec
	Dice  []int
	Total int
}

// Roller rolls dice specs against a Source.
type Roller struct {
	src Source
}

// NewRoller returns a Roller drawing from src.
func NewRoller(src Source) *Roller {
	return &Roller{src: src}
}

// Roll rolls spec. Count and Faces must both be positive.
func (r *Roller) Roll(spec Spec) (Roll, error) {
	if spec.Count <= 0 || spec.Faces <= 0 {
		return Roll{}, fmt.Errorf("invalid dice spec %s", spec)
	}
	out := Roll{Spec: spec, Dice: make([]int, spec.Count)}
	for i := range out.Dice {
		out.Dice[i] = r.src.Intn(spec.Faces) + 1
		out.Total += out.Dice[i]
	}
	return out, nil
}
