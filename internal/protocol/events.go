package protocol

// Event types emitted by the economy. Every mutating operation returns an
// ordered slice of these; presentation is left to the caller.
const (
	EventProduction       = "PRODUCTION"
	EventInventoryUpkeep  = "INVENTORY_UPKEEP"
	EventWarehouseUpkeep  = "WAREHOUSE_UPKEEP"
	EventShipping         = "SHIPPING"
	EventRisk             = "RISK"
	EventArrival          = "ARRIVAL"
	EventMarketUnsold     = "MARKET_UNSOLD"
	EventWarehouse        = "WAREHOUSE"
	EventReturnDispatched = "RETURN_DISPATCHED"
	EventReturnArrived    = "RETURN_ARRIVED"
)

// Event is a single economy state transition.
//
// Amount meaning by type:
//   - PRODUCTION: units produced
//   - INVENTORY_UPKEEP, WAREHOUSE_UPKEEP: units charged for
//   - SHIPPING: units dispatched
//   - RISK: units left after the loss (Lost holds the loss)
//   - ARRIVAL: units sold
//   - MARKET_UNSOLD: units the market could not absorb
//   - WAREHOUSE: units stored
//   - RETURN_DISPATCHED, RETURN_ARRIVED: units travelling back
type Event struct {
	Tick        uint64  `json:"t"`
	Type        string  `json:"type"`
	ShipmentID  string  `json:"shipment_id,omitempty"`
	Ref         string  `json:"ref,omitempty"` // outbound shipment a return was split from
	Amount      int     `json:"amount"`
	Lost        int     `json:"lost,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	Revenue     float64 `json:"revenue,omitempty"`
	Price       float64 `json:"price,omitempty"`
	ArrivalTick uint64  `json:"arrival_tick,omitempty"`
}

// Action types recorded between ticks.
const (
	ActionProduce = "PRODUCE"
	ActionShip    = "SHIP"
)

// Action is an accepted player command, recorded so a tick log can be replayed.
type Action struct {
	Type   string `json:"type"`
	Amount int    `json:"amount,omitempty"`
}
