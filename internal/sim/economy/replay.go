package economy

import (
	"fmt"

	"galaxytrade/internal/protocol"
)

// Replayer re-executes a recorded tick log against a fresh engine and checks
// that every tick reproduces the recorded digest.
type Replayer struct {
	e   *Engine
	rng *Scripted

	checked uint64
}

func NewReplayer(p Params) (*Replayer, error) {
	rng := NewScripted()
	e, err := NewEngine(p, rng)
	if err != nil {
		return nil, err
	}
	return &Replayer{e: e, rng: rng}, nil
}

func (r *Replayer) Engine() *Engine { return r.e }
func (r *Replayer) Checked() uint64 { return r.checked }

func (r *Replayer) Apply(entry TickLogEntry) error {
	want := r.e.CurrentTick() + 1
	if entry.Tick != want {
		return fmt.Errorf("tick mismatch: want=%d got=%d", want, entry.Tick)
	}
	for i, a := range entry.Actions {
		switch a.Type {
		case protocol.ActionProduce:
			r.e.Produce()
		case protocol.ActionShip:
			if _, _, err := r.e.Ship(a.Amount); err != nil {
				return fmt.Errorf("tick %d action %d: %w", entry.Tick, i, err)
			}
		default:
			return fmt.Errorf("tick %d action %d: unknown type %q", entry.Tick, i, a.Type)
		}
	}

	r.rng.Push(entry.Draws...)
	got := r.e.StepOnce()
	if rem := r.rng.Remaining(); rem != 0 {
		return fmt.Errorf("tick %d: %d recorded draws unused", entry.Tick, rem)
	}
	if n := r.rng.Overrun(); n != 0 {
		return fmt.Errorf("tick %d: consumed %d more draws than recorded", entry.Tick, n)
	}
	if got.Digest != entry.Digest {
		return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", entry.Tick, got.Digest, entry.Digest)
	}
	r.checked++
	return nil
}
