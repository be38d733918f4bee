package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, demoPrice string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
pool:
  initial_capacity: 8
book:
  id: 2
  symbol: TEST
  tick_size: "0.01"
engine:
  inbox_size: 8
  demo: true
  demo_price: %q
storage:
  path: %q
logging:
  level: error
  dir: %q
`, demoPrice, filepath.Join(dir, "db", "test.db"), filepath.Join(dir, "logs"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestBootstrap_DemoAndPersist(t *testing.T) {
	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, "100.00")); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go b.Sequencer.Run(ctx)

	b.RunDemo(ctx)

	if err := b.PersistSnapshot(ctx); err != nil {
		t.Fatalf("PersistSnapshot failed: %v", err)
	}

	rec, err := b.Storage.LatestSnapshot(ctx, 2)
	if err != nil || rec == nil {
		t.Fatalf("LatestSnapshot = (%v, %v)", rec, err)
	}
	if rec.Seq != 5 || rec.Orders != 3 {
		t.Errorf("expected seq 5 with 3 orders, got seq=%d orders=%d", rec.Seq, rec.Orders)
	}
	// 3 adds, 1 cancel, 1 add into the recycled slot.
	if rec.PoolSize != 3 || rec.PoolLive != 3 || rec.PoolFree != 0 {
		t.Errorf("unexpected pool stats %+v", rec)
	}
	if len(rec.Levels) != 1 || rec.Levels[0].PriceText != "100" || rec.Levels[0].Volume != 80 {
		t.Errorf("unexpected levels %+v", rec.Levels)
	}
}

func TestBootstrap_DemoRejectsOffTickPrice(t *testing.T) {
	b := NewBootstrap()
	if err := b.Initialize(writeTestConfig(t, "100.005")); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go b.Sequencer.Run(ctx)

	b.RunDemo(ctx)

	snap, last, err := b.Sequencer.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if last != 0 || snap.Orders != 0 {
		t.Errorf("off-tick demo price must not send events, seq=%d orders=%d", last, snap.Orders)
	}
}

func TestBootstrap_MissingConfig(t *testing.T) {
	b := NewBootstrap()
	if err := b.Initialize(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
