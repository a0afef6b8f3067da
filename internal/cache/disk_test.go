package cache

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func openMemDisk(t *testing.T, ttl time.Duration) *Disk {
	t.Helper()
	d, err := openDisk(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), ttl)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDiskRoundTrip(t *testing.T) {
	d := openMemDisk(t, time.Minute)
	ctx := context.Background()
	if _, ok, err := d.Get(ctx, "evaluation:20:0:fen"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := d.Set(ctx, "evaluation:20:0:fen", []byte("42")); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := d.Get(ctx, "evaluation:20:0:fen")
	if err != nil || !ok || string(b) != "42" {
		t.Fatalf("get = %q ok=%v err=%v", b, ok, err)
	}
}

func TestDiskDefaultsTTL(t *testing.T) {
	d := openMemDisk(t, 0)
	if d.ttl != DefaultTTL {
		t.Fatalf("expected default ttl, got %s", d.ttl)
	}
}

func TestDiskOnDisk(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDisk(dir, time.Minute)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := d.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	d, err = OpenDisk(dir, time.Minute)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d.Close()
	if b, ok, _ := d.Get(ctx, "k"); !ok || string(b) != "v" {
		t.Fatalf("value not persisted: %q %v", b, ok)
	}
}

func TestNilDisk(t *testing.T) {
	var d *Disk
	if _, ok, err := d.Get(context.Background(), "k"); ok || err != nil {
		t.Fatalf("nil disk get: %v %v", ok, err)
	}
	if err := d.Set(context.Background(), "k", nil); err != nil {
		t.Fatalf("nil disk set: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("nil disk close: %v", err)
	}
}
