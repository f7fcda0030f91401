package core

import (
	"testing"
	"time"
)

func TestInflightGuardRejectsWhileHeld(t *testing.T) {
	g := newInflightGuard(0)
	key := inflightKey(EntityGoal, "g1")
	if key != "goal:g1" {
		t.Fatalf("unexpected key %q", key)
	}
	if !g.acquire(key) {
		t.Fatalf("first acquire must succeed")
	}
	if g.acquire(key) {
		t.Fatalf("second acquire must fail while held")
	}
	if !g.acquire(inflightKey(EntityProject, "g1")) {
		t.Fatalf("keys are scoped per entity type")
	}
	g.release(key)
	if g.busy(key) {
		t.Fatalf("zero delay must release immediately")
	}
}

func TestInflightGuardSettles(t *testing.T) {
	g := newInflightGuard(20 * time.Millisecond)
	key := inflightKey(EntityTask, "t1")
	g.acquire(key)
	g.release(key)
	if !g.busy(key) {
		t.Fatalf("key must stay held while settling")
	}
	deadline := time.Now().Add(2 * time.Second)
	for g.busy(key) {
		if time.Now().After(deadline) {
			t.Fatalf("key never released")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
