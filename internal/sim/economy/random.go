package economy

import "math/rand"

// Random yields uniform draws in [0,1). *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

func NewRandom(seed int64) Random {
	return rand.New(rand.NewSource(seed))
}

// Scripted replays a fixed sequence of draws. Once the script is exhausted it
// returns Fallback and counts the overrun.
type Scripted struct {
	Draws    []float64
	Fallback float64

	next    int
	overrun int
}

// NewScripted returns a source that yields draws in order, then 0.999999.
func NewScripted(draws ...float64) *Scripted {
	return &Scripted{Draws: draws, Fallback: 0.999999}
}

func (s *Scripted) Float64() float64 {
	if s.next < len(s.Draws) {
		v := s.Draws[s.next]
		s.next++
		return v
	}
	s.overrun++
	return s.Fallback
}

// Push appends draws to the end of the script.
func (s *Scripted) Push(draws ...float64) { s.Draws = append(s.Draws, draws...) }

// Remaining reports how many scripted draws are still unused.
func (s *Scripted) Remaining() int { return len(s.Draws) - s.next }

// Overrun reports how many draws were served from Fallback.
func (s *Scripted) Overrun() int { return s.overrun }
