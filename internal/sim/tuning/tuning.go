package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Seed            int64   `yaml:"seed"`
	StartingCredits float64 `yaml:"starting_credits"`
	MaxAdvanceSteps int     `yaml:"max_advance_steps"`

	Production Production `yaml:"production"`
	Route      Route      `yaml:"route"`
	Market     Market     `yaml:"market"`
}

type Production struct {
	PerTick                int     `yaml:"per_tick"`
	CostPerUnit            float64 `yaml:"cost_per_unit"`
	InventoryUpkeepPerUnit float64 `yaml:"inventory_upkeep_per_unit"`
}

type Route struct {
	From                     string  `yaml:"from"`
	To                       string  `yaml:"to"`
	TravelTime               int     `yaml:"travel_time"`
	ShippingCostPerUnit      float64 `yaml:"shipping_cost_per_unit"`
	BaseFee                  float64 `yaml:"base_fee"`
	RiskBaseline             float64 `yaml:"risk_baseline"`
	ReturnShippingMultiplier float64 `yaml:"return_shipping_multiplier"`
}

type Market struct {
	BasePrice                   float64 `yaml:"base_price"`
	DemandPerTick               int     `yaml:"demand_per_tick"`
	WarehouseCapacity           int     `yaml:"warehouse_capacity"`
	WarehouseStorageCostPerUnit float64 `yaml:"warehouse_storage_cost_per_unit"`
}

// Defaults is the Forge -> Haven setup every fresh run starts from.
func Defaults() Tuning {
	return Tuning{
		Seed:            1337,
		StartingCredits: 100,
		MaxAdvanceSteps: 1000,
		Production: Production{
			PerTick:                10,
			CostPerUnit:            1,
			InventoryUpkeepPerUnit: 0.5,
		},
		Route: Route{
			From:                     "Forge",
			To:                       "Haven",
			TravelTime:               3,
			ShippingCostPerUnit:      1,
			BaseFee:                  5,
			RiskBaseline:             0.05,
			ReturnShippingMultiplier: 1.0,
		},
		Market: Market{
			BasePrice:                   10,
			DemandPerTick:               15,
			WarehouseCapacity:           100,
			WarehouseStorageCostPerUnit: 1.5,
		},
	}
}

// Load reads a tuning file on top of Defaults. Keys absent from the file keep
// their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.MaxAdvanceSteps <= 0:
		return fmt.Errorf("max_advance_steps must be > 0 (got %d)", t.MaxAdvanceSteps)
	case t.Production.PerTick < 0:
		return fmt.Errorf("production.per_tick must be >= 0 (got %d)", t.Production.PerTick)
	case t.Production.CostPerUnit < 0 || t.Production.InventoryUpkeepPerUnit < 0:
		return fmt.Errorf("production costs must be >= 0")
	case t.Route.TravelTime < 0:
		return fmt.Errorf("route.travel_time must be >= 0 (got %d)", t.Route.TravelTime)
	case t.Route.ShippingCostPerUnit < 0 || t.Route.BaseFee < 0:
		return fmt.Errorf("route costs must be >= 0")
	case t.Route.RiskBaseline < 0:
		return fmt.Errorf("route.risk_baseline must be >= 0 (got %v)", t.Route.RiskBaseline)
	case t.Route.ReturnShippingMultiplier <= 0:
		return fmt.Errorf("route.return_shipping_multiplier must be > 0 (got %v)", t.Route.ReturnShippingMultiplier)
	case t.Market.DemandPerTick < 0:
		return fmt.Errorf("market.demand_per_tick must be >= 0 (got %d)", t.Market.DemandPerTick)
	case t.Market.WarehouseCapacity < 0:
		return fmt.Errorf("market.warehouse_capacity must be >= 0 (got %d)", t.Market.WarehouseCapacity)
	case t.Market.BasePrice < 0 || t.Market.WarehouseStorageCostPerUnit < 0:
		return fmt.Errorf("market prices must be >= 0")
	}
	return nil
}
