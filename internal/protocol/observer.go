package protocol

// SUBSCRIBE (observer -> server)
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// Status is the read-only view of the economy sent to observers.
type Status struct {
	Tick               uint64  `json:"tick"`
	Credits            float64 `json:"credits"`
	Inventory          int     `json:"inventory"`
	PendingShipments   int     `json:"pending_shipments"`
	WarehouseOccupancy int     `json:"warehouse_occupancy"`
	WarehouseCapacity  int     `json:"warehouse_capacity"`
	DemandRemaining    int     `json:"demand_remaining"`
	CurrentPrice       float64 `json:"current_price"`
}

// HELLO (server -> observer)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	From            string `json:"from"`
	To              string `json:"to"`
	Status          Status `json:"status"`
}

// TICK (server -> observer)
type TickMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Tick            uint64   `json:"tick"`
	Events          []Event  `json:"events"`
	Actions         []Action `json:"actions,omitempty"`
	Digest          string   `json:"digest"`
	Status          Status   `json:"status"`
}

// ERROR (server -> observer)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
