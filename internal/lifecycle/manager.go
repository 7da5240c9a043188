// Package lifecycle owns every transient object reference the viewer
// creates and guarantees each is revoked exactly once.
package lifecycle

import (
	"context"
	"sync"

	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
)

// Slot names a display position that holds at most one live reference.
type Slot string

const (
	SlotDisplay Slot = "display"
	SlotRunner  Slot = "runner"
)

// Manager tracks the live reference per slot.
type Manager struct {
	mu    sync.Mutex
	reg   *objref.Registry
	log   logging.Logger
	slots map[Slot]objref.Ref
}

func NewManager(reg *objref.Registry, log logging.Logger) *Manager {
	return &Manager{reg: reg, log: log, slots: make(map[Slot]objref.Ref)}
}

// Assign installs ref in slot and only then revokes the reference it
// replaces, so the surface never points at a revoked locator.
func (m *Manager) Assign(slot Slot, ref objref.Ref) {
	m.mu.Lock()
	old, had := m.slots[slot]
	m.slots[slot] = ref
	m.mu.Unlock()

	if had && old.ID != ref.ID {
		m.revoke(slot, old)
	}
}

// Current returns the live reference in slot.
func (m *Manager) Current(slot Slot) (objref.Ref, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.slots[slot]
	return ref, ok
}

// Release revokes and clears slot. It is a no-op for an empty slot.
func (m *Manager) Release(slot Slot) {
	m.mu.Lock()
	ref, ok := m.slots[slot]
	delete(m.slots, slot)
	m.mu.Unlock()

	if ok {
		m.revoke(slot, ref)
	}
}

// ReleaseAll revokes every slot, for host teardown.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	refs := m.slots
	m.slots = make(map[Slot]objref.Ref)
	m.mu.Unlock()

	for slot, ref := range refs {
		m.revoke(slot, ref)
	}
}

func (m *Manager) revoke(slot Slot, ref objref.Ref) {
	if !m.reg.Revoke(ref) {
		m.log.Warn(context.Background(), "reference already revoked", "slot", slot, "ref", ref.ID)
		return
	}
	m.log.Debug(context.Background(), "reference revoked", "slot", slot, "ref", ref.ID)
}
