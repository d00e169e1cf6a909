package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// recordingPlugin implements every hook and counts invocations.
type recordingPlugin struct {
	name string

	inits         atomic.Int64
	shutdowns     atomic.Int64
	movements     atomic.Int64
	consolidated  atomic.Int64
	reverted      atomic.Int64
	simulations   atomic.Int64
	drifts        atomic.Int64
	failMovements bool
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) OnInit(context.Context, interface{}) error {
	p.inits.Add(1)
	return nil
}

func (p *recordingPlugin) OnShutdown(context.Context) error {
	p.shutdowns.Add(1)
	return nil
}

func (p *recordingPlugin) OnMovementApplied(context.Context, *transaction.Transaction, *bank.Snapshot) error {
	p.movements.Add(1)
	if p.failMovements {
		return errors.New("hook failed")
	}
	return nil
}

func (p *recordingPlugin) OnPeriodConsolidated(context.Context, types.Period, types.Money, int64) error {
	p.consolidated.Add(1)
	return nil
}

func (p *recordingPlugin) OnTransactionReverted(context.Context, *transaction.Transaction, *transaction.Transaction) error {
	p.reverted.Add(1)
	return nil
}

func (p *recordingPlugin) OnSimulationRecorded(context.Context, types.Money, *bank.Snapshot) error {
	p.simulations.Add(1)
	return nil
}

func (p *recordingPlugin) OnDriftDetected(context.Context, types.Money, types.Money) error {
	p.drifts.Add(1)
	return nil
}

// namedOnly implements nothing beyond the base interface.
type namedOnly struct{ name string }

func (p *namedOnly) Name() string { return p.name }

func quietRegistry() *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister(t *testing.T) {
	r := quietRegistry()

	if err := r.Register(&recordingPlugin{name: "recorder"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&namedOnly{name: "inert"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if r.Count() != 2 {
		t.Errorf("Count: got %d, want 2", r.Count())
	}
	if r.Get("recorder") == nil {
		t.Error("Get(recorder) returned nil")
	}
	if r.Get("missing") != nil {
		t.Error("Get(missing) should return nil")
	}
	if len(r.List()) != 2 {
		t.Errorf("List: got %d, want 2", len(r.List()))
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := quietRegistry()

	if err := r.Register(&namedOnly{name: "dup"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&namedOnly{name: "dup"}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestEmitDispatch(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()

	p := &recordingPlugin{name: "recorder"}
	inert := &namedOnly{name: "inert"}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(inert); err != nil {
		t.Fatalf("Register: %v", err)
	}

	txn := &transaction.Transaction{}
	snap := &bank.Snapshot{}
	money := types.MustParseMoney("10", "eur")

	r.EmitInit(ctx, nil)
	r.EmitMovementApplied(ctx, txn, snap)
	r.EmitMovementApplied(ctx, txn, snap)
	r.EmitPeriodConsolidated(ctx, "2026-03", money, 3)
	r.EmitTransactionReverted(ctx, txn, txn)
	r.EmitSimulationRecorded(ctx, money, snap)
	r.EmitDriftDetected(ctx, money, money)
	r.EmitShutdown(ctx)

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"inits", p.inits.Load(), 1},
		{"movements", p.movements.Load(), 2},
		{"consolidated", p.consolidated.Load(), 1},
		{"reverted", p.reverted.Load(), 1},
		{"simulations", p.simulations.Load(), 1},
		{"drifts", p.drifts.Load(), 1},
		{"shutdowns", p.shutdowns.Load(), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestEmitSurvivesFailingPlugin(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()

	failing := &recordingPlugin{name: "failing", failMovements: true}
	healthy := &recordingPlugin{name: "healthy"}
	if err := r.Register(failing); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(healthy); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// A failing hook must not stop dispatch to the remaining plugins.
	r.EmitMovementApplied(ctx, &transaction.Transaction{}, &bank.Snapshot{})

	if healthy.movements.Load() != 1 {
		t.Errorf("healthy plugin not reached: got %d calls", healthy.movements.Load())
	}
}

func TestGetImplementedInterfaces(t *testing.T) {
	r := quietRegistry()

	full := r.getImplementedInterfaces(&recordingPlugin{name: "full"})
	if len(full) != 7 {
		t.Errorf("full plugin: got %d interfaces (%v), want 7", len(full), full)
	}

	none := r.getImplementedInterfaces(&namedOnly{name: "inert"})
	if len(none) != 0 {
		t.Errorf("inert plugin: got %v, want none", none)
	}
}
