// Package noise provides the seeded jitter used by the simulator and the synthetic signal generator.
// A Source is a pure function of its seeds: identical seeds always produce the same value.
package noise

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync/atomic"
)

// Source maps numeric seeds to a value in [0,1).
type Source interface {
	Float(seeds ...float64) float64
}

// Hash is the default Source: FNV-1a over the IEEE bits of every seed, then a splitmix64 finalizer.
type Hash struct {
	Salt uint64
}

func (h Hash) Float(seeds ...float64) float64 {
	f := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h.Salt)
	f.Write(buf[:])
	for _, s := range seeds {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s))
		f.Write(buf[:])
	}
	x := mix(f.Sum64())
	return float64(x>>11) / float64(1<<53)
}

func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Constant always returns the same value, clamped into [0,1).
type Constant float64

func (c Constant) Float(...float64) float64 {
	v := float64(c)
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}

// Sequence ignores its seeds and replays Values in order, wrapping around.
// Intended for tests that need to pin the jitter applied to each call.
type Sequence struct {
	Values []float64
	next   atomic.Uint64
}

func NewSequence(values ...float64) *Sequence {
	return &Sequence{Values: values}
}

func (s *Sequence) Float(...float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	i := s.next.Add(1) - 1
	return Constant(s.Values[i%uint64(len(s.Values))]).Float()
}

// Signed maps a [0,1) draw onto [-1,1).
func Signed(v float64) float64 {
	return 2*v - 1
}
