package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zackbart/trove/internal/logging"
	"github.com/zackbart/trove/internal/objref"
)

func TestManager_AssignCreatesThenRevokes(t *testing.T) {
	reg := objref.NewRegistry("")
	m := NewManager(reg, logging.Discard())

	const switches = 5
	var refs []objref.Ref
	for i := 0; i < switches; i++ {
		ref := reg.CreateBytes([]byte{byte(i)}, "text/plain")
		m.Assign(SlotDisplay, ref)
		refs = append(refs, ref)

		assert.LessOrEqual(t, reg.Stats().Live, 1)
		assert.True(t, reg.Live(ref.ID), "newly assigned reference stays live")
		if i > 0 {
			assert.False(t, reg.Live(refs[i-1].ID))
		}
	}

	m.Release(SlotDisplay)
	assert.Equal(t, objref.Stats{Created: switches, Revoked: switches, Live: 0}, reg.Stats())

	m.Release(SlotDisplay)
	assert.Equal(t, switches, reg.Stats().Revoked, "releasing an empty slot does nothing")
}

func TestManager_AssignSameRefKeepsIt(t *testing.T) {
	reg := objref.NewRegistry("")
	m := NewManager(reg, logging.Discard())
	ref := reg.CreateBytes(nil, "")

	m.Assign(SlotRunner, ref)
	m.Assign(SlotRunner, ref)
	assert.True(t, reg.Live(ref.ID))

	cur, ok := m.Current(SlotRunner)
	require.True(t, ok)
	assert.Equal(t, ref, cur)
}

func TestManager_ReleaseAll(t *testing.T) {
	reg := objref.NewRegistry("")
	m := NewManager(reg, logging.Discard())
	m.Assign(SlotDisplay, reg.CreateBytes(nil, ""))
	m.Assign(SlotRunner, reg.CreateBytes(nil, ""))

	m.ReleaseAll()
	assert.Equal(t, objref.Stats{Created: 2, Revoked: 2, Live: 0}, reg.Stats())
	_, ok := m.Current(SlotDisplay)
	assert.False(t, ok)
}

func TestLoop(t *testing.T) {
	var l Loop
	assert.False(t, l.Running())

	a := l.Start()
	assert.True(t, l.Alive(a))

	b := l.Start()
	assert.False(t, l.Alive(a), "a new loop supersedes the old one")
	assert.True(t, l.Alive(b))

	l.Cancel()
	assert.False(t, l.Alive(b))
	assert.False(t, l.Running())
}
