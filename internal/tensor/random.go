package tensor

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator is a seeded source of samples for tensor initialisation.
// Equal seeds produce equal sequences.
type Generator struct {
	src  *rand.PCG
	rng  *rand.Rand
	norm distuv.Normal
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Generator{
		src:  src,
		rng:  rand.New(src),
		norm: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// Normal returns a standard normal sample.
func (g *Generator) Normal() float64 {
	return g.norm.Rand()
}

// Uniform returns a sample from [0, 1).
func (g *Generator) Uniform() float64 {
	return g.rng.Float64()
}

// orDefault returns g, or a randomly seeded generator when g is nil.
func (g *Generator) orDefault() *Generator {
	if g != nil {
		return g
	}
	return NewGenerator(rand.Uint64())
}

// FillNormal overwrites every addressable element with a standard normal
// sample drawn from g. A nil g uses a randomly seeded generator.
func (t *Tensor[T]) FillNormal(g *Generator) {
	g = g.orDefault()
	data := t.Data()
	for i := range data {
		data[i] = T(g.Normal())
	}
}

// FillUniform overwrites every addressable element with a sample from [0, 1).
func (t *Tensor[T]) FillUniform(g *Generator) {
	g = g.orDefault()
	// Largest value below 1 representable in T; float32 rounding can
	// otherwise turn a sample just under 1 into 1.
	below := math.Nextafter(1, 0)
	if DataTypeOf[T]() == Float32 {
		below = float64(math.Nextafter32(1, 0))
	}
	data := t.Data()
	for i := range data {
		v := T(g.Uniform())
		if float64(v) >= 1 {
			v = T(below)
		}
		data[i] = v
	}
}

// Randn creates a tensor with values from a normal distribution (mean=0, std=1).
//
// Example:
//
//	t, err := tensor.Randn[float32](Shape{100, 100}, tensor.NewGenerator(42))
func Randn[T Float](shape Shape, g *Generator, opts ...Option) (*Tensor[T], error) {
	t, err := SizedTensor[T](shape, opts...)
	if err != nil {
		return nil, err
	}
	t.FillNormal(g)
	return t, nil
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
func Rand[T Float](shape Shape, g *Generator, opts ...Option) (*Tensor[T], error) {
	t, err := SizedTensor[T](shape, opts...)
	if err != nil {
		return nil, err
	}
	t.FillUniform(g)
	return t, nil
}

// Zeros creates a tensor filled with zeros regardless of the allocator's
// initial contents.
func Zeros[T Float](shape Shape, opts ...Option) (*Tensor[T], error) {
	return Full[T](shape, 0, opts...)
}

// Full creates a tensor filled with value.
func Full[T Float](shape Shape, value T, opts ...Option) (*Tensor[T], error) {
	t, err := SizedTensor[T](shape, opts...)
	if err != nil {
		return nil, err
	}
	t.Fill(value)
	return t, nil
}
