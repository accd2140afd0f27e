package economy

import (
	"fmt"
	"math"
)

type ShipmentKind uint8

const (
	Outbound ShipmentKind = iota + 1
	Return
)

func (k ShipmentKind) String() string {
	switch k {
	case Outbound:
		return "OUTBOUND"
	case Return:
		return "RETURN"
	default:
		return fmt.Sprintf("KIND(%d)", uint8(k))
	}
}

type Shipment struct {
	ID          string
	Amount      int
	ArrivalTick uint64
	Kind        ShipmentKind
}

// Ledger holds in-flight shipments in dispatch order. Resolution walks
// arrivals in that order so risk draws are consumed deterministically.
type Ledger struct {
	travelTime       int
	returnMultiplier float64

	nextNum uint64
	pending []Shipment
}

func NewLedger(travelTime int, returnMultiplier float64) *Ledger {
	if returnMultiplier <= 0 {
		returnMultiplier = 1.0
	}
	return &Ledger{travelTime: travelTime, returnMultiplier: returnMultiplier}
}

// TravelTime is the number of ticks a shipment of kind k spends in transit.
func (l *Ledger) TravelTime(k ShipmentKind) uint64 {
	if k == Return {
		return uint64(math.Floor(float64(l.travelTime) * l.returnMultiplier))
	}
	return uint64(l.travelTime)
}

func (l *Ledger) Dispatch(amount int, kind ShipmentKind, departureTick uint64) (Shipment, error) {
	if amount <= 0 {
		return Shipment{}, fmt.Errorf("dispatch %d: %w", amount, ErrInvalidAmount)
	}
	if kind != Outbound && kind != Return {
		return Shipment{}, fmt.Errorf("dispatch: unknown shipment kind %v", kind)
	}
	l.nextNum++
	s := Shipment{
		ID:          fmt.Sprintf("S%d", l.nextNum),
		Amount:      amount,
		ArrivalTick: departureTick + l.TravelTime(kind),
		Kind:        kind,
	}
	l.pending = append(l.pending, s)
	return s, nil
}

// DrainArrived removes and returns every shipment with ArrivalTick <= nowTick.
func (l *Ledger) DrainArrived(nowTick uint64) []Shipment {
	var arrived []Shipment
	keep := l.pending[:0]
	for _, s := range l.pending {
		if s.ArrivalTick <= nowTick {
			arrived = append(arrived, s)
			continue
		}
		keep = append(keep, s)
	}
	// Clear the tail so drained shipments are not retained by the backing array.
	for i := len(keep); i < len(l.pending); i++ {
		l.pending[i] = Shipment{}
	}
	l.pending = keep
	return arrived
}

func (l *Ledger) PendingCount() int { return len(l.pending) }

// Pending returns a copy of the in-flight shipments in dispatch order.
func (l *Ledger) Pending() []Shipment {
	out := make([]Shipment, len(l.pending))
	copy(out, l.pending)
	return out
}

// PendingUnits sums the in-flight amounts of kind k.
func (l *Ledger) PendingUnits(k ShipmentKind) int {
	n := 0
	for _, s := range l.pending {
		if s.Kind == k {
			n += s.Amount
		}
	}
	return n
}
