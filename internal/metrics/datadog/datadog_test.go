package datadog

import (
	"net"
	"strings"
	"testing"
	"time"

	"filmdw/internal/metrics"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if b, err := NewBackend(Config{}); err == nil || b != nil {
		t.Fatalf("NewBackend(empty) = %v, %v", b, err)
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	got := labelsToTags(metrics.Labels{"stage": "DimFilm", "job": "filmdw", "kind": "inserted"})
	want := []string{"job:filmdw", "kind:inserted", "stage:DimFilm"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	if labelsToTags(nil) != nil {
		t.Fatalf("nil labels must give nil tags")
	}
}

func TestZeroBackendIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.RecordsTotal, 1, nil)
	b.ObserveHistogram(metrics.StepDuration, 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

// TestFlushDeliversToAgent runs a UDP listener in place of the agent.
func TestFlushDeliversToAgent(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listener unavailable: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "filmdw.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.RecordsTotal, 4, metrics.Labels{"stage": "DimGenre", "kind": "inserted"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 8192)
	var got string
	for !strings.Contains(got, "etl_records_total") {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			t.Fatalf("read datagram: %v (seen %q)", err, got)
		}
		got += string(buf[:n])
	}
	for _, want := range []string{"filmdw.etl_records_total:4|c", "stage:DimGenre", "env:test"} {
		if !strings.Contains(got, want) {
			t.Fatalf("datagrams %q missing %q", got, want)
		}
	}
}
