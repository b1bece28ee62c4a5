// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import "testing"

func newTestRegistry(t *testing.T, list []Descriptor) *Registry {
	t.Helper()
	calls := 0
	r := &Registry{
		enumerate: func() ([]Descriptor, error) {
			calls++
			return list, nil
		},
	}
	if err := r.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return r
}

func twoDisplays() []Descriptor {
	return []Descriptor{
		{ID: "display-1", Name: "Primary", Bounds: Rectangle{Width: 1920, Height: 1080}, EffectiveDPIScale: 1.0},
		{ID: "display-2", Name: "Secondary", Bounds: Rectangle{Left: 1920, Width: 1280, Height: 1024}, EffectiveDPIScale: 1.25},
	}
}

func TestRegistry_RefreshSelectsPrimaryByDefault(t *testing.T) {
	r := newTestRegistry(t, twoDisplays())
	if r.ActiveID() != "display-1" {
		t.Fatalf("ActiveID = %q, want display-1", r.ActiveID())
	}
}

func TestRegistry_SwitchToKnownID(t *testing.T) {
	r := newTestRegistry(t, twoDisplays())
	got := r.Switch("display-2")
	if got != "display-2" {
		t.Fatalf("Switch = %q, want display-2", got)
	}
	if r.ActiveID() != "display-2" {
		t.Fatalf("ActiveID = %q, want display-2", r.ActiveID())
	}
}

func TestRegistry_SwitchToUnknownFallsBackToPrimary(t *testing.T) {
	r := newTestRegistry(t, twoDisplays())
	r.Switch("display-2")

	got := r.Switch("nonexistent")
	if got != "display-1" {
		t.Fatalf("Switch(unknown) = %q, want fallback to display-1", got)
	}
}

func TestRegistry_BoundsFallsBackOnMiss(t *testing.T) {
	r := newTestRegistry(t, twoDisplays())

	bounds, scale := r.Bounds("nonexistent")
	if bounds.Width != 1920 || scale != 1.0 {
		t.Fatalf("Bounds(unknown) = %+v, %v; want primary monitor", bounds, scale)
	}
}

func TestRegistry_ListReturnsSnapshot(t *testing.T) {
	r := newTestRegistry(t, twoDisplays())

	list, active := r.List()
	if len(list) != 2 || active != "display-1" {
		t.Fatalf("List() = %v, %q", list, active)
	}

	list[0].Name = "mutated"
	list2, _ := r.List()
	if list2[0].Name == "mutated" {
		t.Fatal("List() must return a copy, not a view into internal state")
	}
}

func TestRegistry_RefreshKeepsActiveIfStillPresent(t *testing.T) {
	r := newTestRegistry(t, twoDisplays())
	r.Switch("display-2")

	if err := r.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if r.ActiveID() != "display-2" {
		t.Fatalf("ActiveID after refresh = %q, want display-2 preserved", r.ActiveID())
	}
}
