package economy

import "galaxytrade/internal/protocol"

// Snapshot is a point-in-time copy of the world for status reporting.
type Snapshot struct {
	Tick               uint64
	Credits            float64
	Inventory          int
	PendingShipments   int
	WarehouseOccupancy int
	WarehouseCapacity  int
	DemandRemaining    int
	CurrentPrice       float64
	Stats              Stats
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Tick:               e.st.tick,
		Credits:            e.st.credits,
		Inventory:          e.st.inventory,
		PendingShipments:   e.ledger.PendingCount(),
		WarehouseOccupancy: e.st.warehouseOccupancy,
		WarehouseCapacity:  e.params.Market.WarehouseCapacity,
		DemandRemaining:    e.st.demandRemaining,
		CurrentPrice:       e.st.currentPrice,
		Stats:              e.stats,
	}
}

// Status converts the snapshot into its wire form.
func (s Snapshot) Status() protocol.Status {
	return protocol.Status{
		Tick:               s.Tick,
		Credits:            s.Credits,
		Inventory:          s.Inventory,
		PendingShipments:   s.PendingShipments,
		WarehouseOccupancy: s.WarehouseOccupancy,
		WarehouseCapacity:  s.WarehouseCapacity,
		DemandRemaining:    s.DemandRemaining,
		CurrentPrice:       s.CurrentPrice,
	}
}
