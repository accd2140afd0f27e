package economy

import "galaxytrade/internal/sim/tuning"

// Params are the economic constants of a run. They never change once an
// Engine has been built.
type Params struct {
	StartingCredits float64
	MaxAdvanceSteps int

	ProductionPerTick          int
	ProductionCostPerUnit      float64
	InventoryUpkeepCostPerUnit float64

	Route  RouteParams
	Market MarketParams
}

type RouteParams struct {
	From                     string
	To                       string
	TravelTime               int
	ShippingCostPerUnit      float64
	BaseFee                  float64
	RiskBaseline             float64
	ReturnShippingMultiplier float64
}

type MarketParams struct {
	BasePrice                   float64
	DemandPerTick               int
	WarehouseCapacity           int
	WarehouseStorageCostPerUnit float64
}

// ParamsFromTuning maps a loaded tuning file onto engine parameters.
func ParamsFromTuning(t tuning.Tuning) Params {
	return Params{
		StartingCredits:            t.StartingCredits,
		MaxAdvanceSteps:            t.MaxAdvanceSteps,
		ProductionPerTick:          t.Production.PerTick,
		ProductionCostPerUnit:      t.Production.CostPerUnit,
		InventoryUpkeepCostPerUnit: t.Production.InventoryUpkeepPerUnit,
		Route: RouteParams{
			From:                     t.Route.From,
			To:                       t.Route.To,
			TravelTime:               t.Route.TravelTime,
			ShippingCostPerUnit:      t.Route.ShippingCostPerUnit,
			BaseFee:                  t.Route.BaseFee,
			RiskBaseline:             t.Route.RiskBaseline,
			ReturnShippingMultiplier: t.Route.ReturnShippingMultiplier,
		},
		Market: MarketParams{
			BasePrice:                   t.Market.BasePrice,
			DemandPerTick:               t.Market.DemandPerTick,
			WarehouseCapacity:           t.Market.WarehouseCapacity,
			WarehouseStorageCostPerUnit: t.Market.WarehouseStorageCostPerUnit,
		},
	}
}

// DefaultParams is ParamsFromTuning(tuning.Defaults()).
func DefaultParams() Params { return ParamsFromTuning(tuning.Defaults()) }

func (p *Params) applyDefaults() {
	if p.MaxAdvanceSteps <= 0 {
		p.MaxAdvanceSteps = 1000
	}
	if p.Route.ReturnShippingMultiplier <= 0 {
		p.Route.ReturnShippingMultiplier = 1.0
	}
	if p.Route.From == "" {
		p.Route.From = "Forge"
	}
	if p.Route.To == "" {
		p.Route.To = "Haven"
	}
}
