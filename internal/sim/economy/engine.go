package economy

import (
	"fmt"

	"galaxytrade/internal/protocol"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry records everything needed to reproduce one tick: the commands
// accepted since the previous tick, the risk draws consumed, and the resulting
// events and state digest.
type TickLogEntry struct {
	Tick    uint64            `json:"tick"`
	Actions []protocol.Action `json:"actions,omitempty"`
	Draws   []float64         `json:"draws,omitempty"`
	Events  []protocol.Event  `json:"events"`
	Digest  string            `json:"digest"`
}

type state struct {
	tick      uint64
	credits   float64
	inventory int

	currentPrice    float64
	demandRemaining int

	warehouseOccupancy int
}

// Engine owns one world: a producer, a route and a market. It is not safe for
// concurrent use; the driver calls one operation at a time.
type Engine struct {
	params Params
	rng    Random

	st     state
	ledger *Ledger
	stats  Stats

	// Optional tick sinks (may be empty). Called after each completed tick.
	tickLoggers []TickLogger

	actions []protocol.Action
	draws   []float64
}

func NewEngine(p Params, rng Random) (*Engine, error) {
	if rng == nil {
		return nil, ErrNilRandom
	}
	p.applyDefaults()
	e := &Engine{
		params: p,
		rng:    rng,
		ledger: NewLedger(p.Route.TravelTime, p.Route.ReturnShippingMultiplier),
		st: state{
			credits:         p.StartingCredits,
			currentPrice:    p.Market.BasePrice,
			demandRemaining: p.Market.DemandPerTick,
		},
	}
	return e, nil
}

func (e *Engine) AddTickLogger(l TickLogger) {
	if l != nil {
		e.tickLoggers = append(e.tickLoggers, l)
	}
}

func (e *Engine) Params() Params      { return e.params }
func (e *Engine) CurrentTick() uint64 { return e.st.tick }
func (e *Engine) Stats() Stats        { return e.stats }
func (e *Engine) PendingCount() int   { return e.ledger.PendingCount() }

// Pending returns a copy of the in-flight shipments.
func (e *Engine) Pending() []Shipment { return e.ledger.Pending() }

// Produce runs the producer once outside the tick pipeline.
func (e *Engine) Produce() []protocol.Event {
	e.actions = append(e.actions, protocol.Action{Type: protocol.ActionProduce})
	return []protocol.Event{e.produce()}
}

func (e *Engine) produce() protocol.Event {
	produced := e.params.ProductionPerTick
	cost := float64(produced) * e.params.ProductionCostPerUnit
	e.st.inventory += produced
	e.st.credits -= cost
	e.stats.Produced += produced
	e.stats.ProductionCost += cost
	return protocol.Event{Tick: e.st.tick, Type: protocol.EventProduction, Amount: produced, Cost: cost}
}

// ShippingCost is the price of dispatching amount units along the route.
func (e *Engine) ShippingCost(amount int) float64 {
	return e.params.Route.BaseFee + float64(amount)*e.params.Route.ShippingCostPerUnit
}

// Ship dispatches amount units from origin inventory. It either succeeds in
// full or leaves the world untouched.
func (e *Engine) Ship(amount int) (Shipment, []protocol.Event, error) {
	if amount <= 0 {
		return Shipment{}, nil, fmt.Errorf("ship %d: %w", amount, ErrInvalidAmount)
	}
	if e.st.inventory < amount {
		return Shipment{}, nil, fmt.Errorf("ship %d (have %d): %w", amount, e.st.inventory, ErrInsufficientInventory)
	}
	cost := e.ShippingCost(amount)
	if e.st.credits < cost {
		return Shipment{}, nil, fmt.Errorf("ship %d costs %.2f (have %.2f): %w", amount, cost, e.st.credits, ErrInsufficientFunds)
	}

	s, err := e.ledger.Dispatch(amount, Outbound, e.st.tick)
	if err != nil {
		return Shipment{}, nil, err
	}
	e.st.inventory -= amount
	e.st.credits -= cost
	e.stats.Shipped += amount
	e.stats.ShippingCost += cost
	e.actions = append(e.actions, protocol.Action{Type: protocol.ActionShip, Amount: amount})

	ev := protocol.Event{
		Tick:        e.st.tick,
		Type:        protocol.EventShipping,
		ShipmentID:  s.ID,
		Amount:      amount,
		Cost:        cost,
		ArrivalTick: s.ArrivalTick,
	}
	return s, []protocol.Event{ev}, nil
}

// Advance runs the tick pipeline steps times and returns one entry per tick.
// Steps outside [0, MaxAdvanceSteps] are rejected before anything changes.
func (e *Engine) Advance(steps int) ([]TickLogEntry, error) {
	if steps < 0 || steps > e.params.MaxAdvanceSteps {
		return nil, fmt.Errorf("advance %d (max %d): %w", steps, e.params.MaxAdvanceSteps, ErrInvalidSteps)
	}
	if steps == 0 {
		return []TickLogEntry{}, nil
	}
	out := make([]TickLogEntry, 0, steps)
	for i := 0; i < steps; i++ {
		out = append(out, e.StepOnce())
	}
	return out, nil
}

// StepOnce advances a single tick. It is the unit replays are verified against.
func (e *Engine) StepOnce() TickLogEntry {
	entry := e.step()
	for _, l := range e.tickLoggers {
		_ = l.WriteTick(entry)
	}
	return entry
}

func (e *Engine) step() TickLogEntry {
	e.st.tick++
	nowTick := e.st.tick

	events := make([]protocol.Event, 0, 8)
	events = e.inventoryUpkeep(nowTick, events)
	events = e.warehouseUpkeep(nowTick, events)
	events = append(events, e.produce())
	events = e.resolveShipments(nowTick, events)
	e.st.demandRemaining = e.params.Market.DemandPerTick

	entry := TickLogEntry{
		Tick:    nowTick,
		Actions: e.actions,
		Draws:   e.draws,
		Events:  events,
		Digest:  e.stateDigest(),
	}
	e.actions = nil
	e.draws = nil
	return entry
}

func (e *Engine) inventoryUpkeep(nowTick uint64, events []protocol.Event) []protocol.Event {
	cost := float64(e.st.inventory) * e.params.InventoryUpkeepCostPerUnit
	e.st.credits -= cost
	e.stats.InventoryUpkeepCost += cost
	if cost > 0 {
		events = append(events, protocol.Event{Tick: nowTick, Type: protocol.EventInventoryUpkeep, Amount: e.st.inventory, Cost: cost})
	}
	return events
}

func (e *Engine) warehouseUpkeep(nowTick uint64, events []protocol.Event) []protocol.Event {
	cost := float64(e.st.warehouseOccupancy) * e.params.Market.WarehouseStorageCostPerUnit
	e.st.credits -= cost
	e.stats.WarehouseUpkeepCost += cost
	if cost > 0 {
		events = append(events, protocol.Event{Tick: nowTick, Type: protocol.EventWarehouseUpkeep, Amount: e.st.warehouseOccupancy, Cost: cost})
	}
	return events
}

func (e *Engine) resolveShipments(nowTick uint64, events []protocol.Event) []protocol.Event {
	for _, s := range e.ledger.DrainArrived(nowTick) {
		if s.Kind == Return {
			e.st.inventory += s.Amount
			e.stats.ReturnedArrived += s.Amount
			events = append(events, protocol.Event{Tick: nowTick, Type: protocol.EventReturnArrived, ShipmentID: s.ID, Amount: s.Amount})
			continue
		}
		var r Resolution
		r, events = e.resolveOutbound(nowTick, s, events)
		e.stats.observe(r)
	}
	return events
}

// Resolution is the fate of one outbound shipment. Lost+Sold+Stored+Returned
// always equals Amount.
type Resolution struct {
	ShipmentID string
	Amount     int
	Disrupted  bool
	Lost       int
	Sold       int
	Stored     int
	Returned   int
	Revenue    float64
}

func (e *Engine) resolveOutbound(nowTick uint64, s Shipment, events []protocol.Event) (Resolution, []protocol.Event) {
	r := Resolution{ShipmentID: s.ID, Amount: s.Amount}
	amount := s.Amount

	// Risk scales linearly with size and is not clamped; >= 1.0 is certain loss.
	effectiveRisk := e.params.Route.RiskBaseline * (float64(amount) / 10)
	draw := e.rng.Float64()
	e.draws = append(e.draws, draw)
	if draw < effectiveRisk {
		r.Disrupted = true
		r.Lost = amount / 2
		amount -= r.Lost
		events = append(events, protocol.Event{Tick: nowTick, Type: protocol.EventRisk, ShipmentID: s.ID, Amount: amount, Lost: r.Lost})
	}

	sellable := min(amount, e.st.demandRemaining)
	unsold := amount - sellable
	revenue := float64(sellable) * e.st.currentPrice
	e.st.credits += revenue
	e.st.demandRemaining -= sellable
	r.Sold = sellable
	r.Revenue = revenue
	events = append(events, protocol.Event{Tick: nowTick, Type: protocol.EventArrival, ShipmentID: s.ID, Amount: sellable, Revenue: revenue, Price: e.st.currentPrice})

	if unsold <= 0 {
		return r, events
	}
	events = append(events, protocol.Event{Tick: nowTick, Type: protocol.EventMarketUnsold, ShipmentID: s.ID, Amount: unsold})

	space := e.params.Market.WarehouseCapacity - e.st.warehouseOccupancy
	stored := max(0, min(unsold, space))
	unsold -= stored
	if stored > 0 {
		e.st.warehouseOccupancy += stored
		r.Stored = stored
		events = append(events, protocol.Event{Tick: nowTick, Type: protocol.EventWarehouse, ShipmentID: s.ID, Amount: stored})
	}

	if unsold > 0 {
		ret, err := e.ledger.Dispatch(unsold, Return, nowTick)
		if err != nil {
			// unsold > 0 and kind is Return; Dispatch cannot fail.
			panic(err)
		}
		r.Returned = unsold
		events = append(events, protocol.Event{
			Tick:        nowTick,
			Type:        protocol.EventReturnDispatched,
			ShipmentID:  ret.ID,
			Ref:         s.ID,
			Amount:      unsold,
			ArrivalTick: ret.ArrivalTick,
		})
	}
	return r, events
}
