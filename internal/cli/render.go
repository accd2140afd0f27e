package cli

import (
	"errors"
	"fmt"
	"io"

	"galaxytrade/internal/protocol"
	"galaxytrade/internal/sim/economy"
)

// Renderer turns engine events into the text the shell prints.
type Renderer struct {
	Resource string
	From     string
	To       string
}

func NewRenderer(p economy.Params) Renderer {
	return Renderer{Resource: "alloys", From: p.Route.From, To: p.Route.To}
}

func (r Renderer) Event(ev protocol.Event) string {
	switch ev.Type {
	case protocol.EventProduction:
		return fmt.Sprintf("[Production] Produced %d %s for %.2f credits.", ev.Amount, r.Resource, ev.Cost)
	case protocol.EventInventoryUpkeep:
		return fmt.Sprintf("[Storage] Paid %.2f credits to store inventory.", ev.Cost)
	case protocol.EventWarehouseUpkeep:
		return fmt.Sprintf("[Warehouse] Paid %.2f credits in warehouse fees.", ev.Cost)
	case protocol.EventShipping:
		return fmt.Sprintf("[Shipping] Sent %d %s to %s (arrives at Stardate %d).", ev.Amount, r.Resource, r.To, ev.ArrivalTick)
	case protocol.EventRisk:
		return fmt.Sprintf("[Risk] Shipment disrupted! Lost %d %s.", ev.Lost, r.Resource)
	case protocol.EventArrival:
		return fmt.Sprintf("[Arrival] Sold %d %s for %.2f credits.", ev.Amount, r.Resource, ev.Revenue)
	case protocol.EventMarketUnsold:
		return fmt.Sprintf("[Market] %d %s unsold.", ev.Amount, r.Resource)
	case protocol.EventWarehouse:
		return fmt.Sprintf("[Warehouse] Stored %d %s at %s.", ev.Amount, r.Resource, r.To)
	case protocol.EventReturnDispatched:
		return fmt.Sprintf("[Return] %d %s sent back to %s.", ev.Amount, r.Resource, r.From)
	case protocol.EventReturnArrived:
		return fmt.Sprintf("[Return Arrived] %d %s returned to %s.", ev.Amount, r.Resource, r.From)
	default:
		return fmt.Sprintf("[%s] %d", ev.Type, ev.Amount)
	}
}

func (r Renderer) Events(w io.Writer, evs []protocol.Event) {
	for _, ev := range evs {
		fmt.Fprintln(w, r.Event(ev))
	}
}

func (r Renderer) Ticks(w io.Writer, logs []economy.TickLogEntry) {
	for _, l := range logs {
		fmt.Fprintf(w, "\nStardate %d\n", l.Tick)
		r.Events(w, l.Events)
	}
}

func (r Renderer) Status(w io.Writer, s economy.Snapshot) {
	fmt.Fprintln(w, "\n--- STATUS ---")
	fmt.Fprintf(w, "Stardate: %d\n", s.Tick)
	fmt.Fprintf(w, "Credits: %.2f\n", s.Credits)
	fmt.Fprintf(w, "Inventory: %d %s\n", s.Inventory, r.Resource)
	fmt.Fprintf(w, "In Transit: %d shipments\n", s.PendingShipments)
	fmt.Fprintf(w, "Warehouse: %d/%d\n", s.WarehouseOccupancy, s.WarehouseCapacity)
	fmt.Fprintf(w, "Demand: %d at %.2f credits\n", s.DemandRemaining, s.CurrentPrice)
	fmt.Fprintln(w, "----------------")
	fmt.Fprintln(w)
}

// Error renders an engine failure as a one-line message.
func (r Renderer) Error(err error) string {
	switch {
	case errors.Is(err, economy.ErrInsufficientInventory):
		return fmt.Sprintf("Not enough %s to ship.", r.Resource)
	case errors.Is(err, economy.ErrInsufficientFunds):
		return "Not enough credits to pay shipping costs."
	case errors.Is(err, economy.ErrInvalidAmount):
		return "Amount must be a positive number."
	case errors.Is(err, economy.ErrInvalidSteps):
		return fmt.Sprintf("Invalid tick count (%v).", err)
	default:
		return fmt.Sprintf("Error [%s]: %v", economy.ErrorCode(err), err)
	}
}
