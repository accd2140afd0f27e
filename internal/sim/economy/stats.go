package economy

// Stats are running totals since the engine was built.
type Stats struct {
	Produced int
	Shipped  int

	// Outbound resolution.
	Resolved           int
	Lost               int
	Sold               int
	Stored             int
	ReturnedDispatched int
	ReturnedArrived    int
	Disruptions        int

	Revenue             float64
	ProductionCost      float64
	ShippingCost        float64
	InventoryUpkeepCost float64
	WarehouseUpkeepCost float64
}

func (s *Stats) observe(r Resolution) {
	s.Resolved += r.Amount
	s.Lost += r.Lost
	s.Sold += r.Sold
	s.Stored += r.Stored
	s.ReturnedDispatched += r.Returned
	s.Revenue += r.Revenue
	if r.Disrupted {
		s.Disruptions++
	}
}

// Costs is the sum of all credits spent.
func (s Stats) Costs() float64 {
	return s.ProductionCost + s.ShippingCost + s.InventoryUpkeepCost + s.WarehouseUpkeepCost
}
