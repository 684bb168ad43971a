package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type cfg struct{ addr string }

func (c cfg) GetAddr() string     { return c.addr }
func (c cfg) GetPassword() string { return "" }
func (c cfg) GetDB() int          { return 0 }

func TestNew(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := New(context.Background(), cfg{addr: s.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.CheckGet(t, "k", "v")
}

func TestNewWithoutAddress(t *testing.T) {
	client, err := New(context.Background(), cfg{})
	if err != nil || client != nil {
		t.Fatalf("expected nil client without address, got %v, %v", client, err)
	}
}

func TestNewUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	if _, err := New(context.Background(), cfg{addr: addr}); err == nil {
		t.Fatalf("expected ping error")
	}
}
