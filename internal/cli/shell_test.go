package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"galaxytrade/internal/protocol"
	"galaxytrade/internal/sim/economy"
)

func newShell(t *testing.T) (*Shell, *economy.Engine, *bytes.Buffer) {
	t.Helper()
	p := economy.DefaultParams()
	p.Route.RiskBaseline = 0
	e, err := economy.NewEngine(p, economy.NewScripted())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	var out bytes.Buffer
	return NewShell(e, &out), e, &out
}

func TestShell_Session(t *testing.T) {
	sh, e, out := newShell(t)
	commands := 0
	sh.AfterCommand = func() { commands++ }

	in := strings.NewReader("produce\nship 10\ntick 3\nstatus\nquit\nproduce\n")
	if err := sh.Run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"[Production] Produced 10 alloys for 10.00 credits.",
		"[Shipping] Sent 10 alloys to Haven (arrives at Stardate 3).",
		"Advancing time by 3 tick(s).",
		"Stardate 3",
		"[Storage] Paid 5.00 credits to store inventory.",
		"[Arrival] Sold 10 alloys for 100.00 credits.",
		"Credits: 130.00",
		"In Transit: 0 shipments",
		"Warehouse: 0/100",
		"Until next time, Space Cowboy.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if commands != 2 {
		t.Fatalf("AfterCommand ran %d times, want 2", commands)
	}
	// The produce after quit must not run.
	if e.Snapshot().Inventory != 30 {
		t.Fatalf("inventory=%d want 30", e.Snapshot().Inventory)
	}
}

func TestShell_Errors(t *testing.T) {
	sh, e, out := newShell(t)
	before := e.Snapshot()
	for _, line := range []string{"ship 5", "ship abc", "ship 0", "tick -1", "tick 5000", "fly", "ship"} {
		if sh.Exec(line) {
			t.Fatalf("%q should not quit", line)
		}
	}
	text := out.String()
	for _, want := range []string{
		"Not enough alloys to ship.",
		`Not a number: "abc"`,
		"Amount must be a positive number.",
		"Tick count must be between 0 and 1000.",
		"Unknown command. Type 'help'.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if e.Snapshot() != before {
		t.Fatalf("failed commands mutated state")
	}
}

func TestShell_StopsOnContext(t *testing.T) {
	sh, _, _ := newShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sh.Run(ctx, strings.NewReader("produce\n")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRenderer_AllEventTypes(t *testing.T) {
	r := Renderer{Resource: "alloys", From: "Forge", To: "Haven"}
	cases := map[string]protocol.Event{
		"[Risk] Shipment disrupted! Lost 10 alloys.":                 {Type: protocol.EventRisk, Amount: 10, Lost: 10},
		"[Market] 5 alloys unsold.":                                  {Type: protocol.EventMarketUnsold, Amount: 5},
		"[Warehouse] Stored 5 alloys at Haven.":                      {Type: protocol.EventWarehouse, Amount: 5},
		"[Warehouse] Paid 7.50 credits in warehouse fees.":           {Type: protocol.EventWarehouseUpkeep, Amount: 5, Cost: 7.5},
		"[Return] 3 alloys sent back to Forge.":                      {Type: protocol.EventReturnDispatched, Amount: 3},
		"[Return Arrived] 3 alloys returned to Forge.":               {Type: protocol.EventReturnArrived, Amount: 3},
		"[Storage] Paid 0.50 credits to store inventory.":            {Type: protocol.EventInventoryUpkeep, Amount: 1, Cost: 0.5},
		"[Arrival] Sold 0 alloys for 0.00 credits.":                  {Type: protocol.EventArrival},
		"[Shipping] Sent 2 alloys to Haven (arrives at Stardate 9).": {Type: protocol.EventShipping, Amount: 2, ArrivalTick: 9},
	}
	for want, ev := range cases {
		if got := r.Event(ev); got != want {
			t.Fatalf("render %s: got %q want %q", ev.Type, got, want)
		}
	}
}

func TestRenderer_InsufficientFunds(t *testing.T) {
	r := Renderer{Resource: "alloys"}
	if got := r.Error(economy.ErrInsufficientFunds); got != "Not enough credits to pay shipping costs." {
		t.Fatalf("got %q", got)
	}
}

func TestShell_CancelWhileWaitingForInput(t *testing.T) {
	sh, e, _ := newShell(t)
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- sh.Run(ctx, pr) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run still blocked after cancel")
	}

	// A line typed after cancellation must not run.
	go func() { _, _ = pw.Write([]byte("produce\n")) }()
	time.Sleep(50 * time.Millisecond)
	if e.Snapshot().Inventory != 0 {
		t.Fatalf("command ran after cancel")
	}
}

func TestRenderer_UnexpectedErrorCarriesCode(t *testing.T) {
	r := Renderer{Resource: "alloys"}
	if got := r.Error(errors.New("boom")); got != "Error [E_INTERNAL]: boom" {
		t.Fatalf("got %q", got)
	}
}
