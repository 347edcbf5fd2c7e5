package vecstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("DefaultPromotion", func(t *testing.T) {
		m := NewManager()

		_, err := m.Default()
		require.ErrorIs(t, err, ErrNoDefaultStore)

		a := NewMemoryStore()
		b := NewMemoryStore()

		require.NoError(t, m.Register("a", a))
		def, err := m.Default()
		require.NoError(t, err)
		assert.Same(t, a, def)

		// Registering B afterwards leaves the default at A.
		require.NoError(t, m.Register("b", b))
		def, err = m.Default()
		require.NoError(t, err)
		assert.Same(t, a, def)
		assert.Equal(t, "a", m.DefaultName())

		// Unregistering A promotes B.
		require.NoError(t, m.Unregister("a"))
		def, err = m.Default()
		require.NoError(t, err)
		assert.Same(t, b, def)
		assert.Equal(t, "b", m.DefaultName())

		require.NoError(t, m.Unregister("b"))
		_, err = m.Default()
		require.ErrorIs(t, err, ErrNoDefaultStore)
		assert.Empty(t, m.DefaultName())
	})

	t.Run("DuplicateName", func(t *testing.T) {
		m := NewManager()
		require.NoError(t, m.Register("a", NewMemoryStore()))
		err := m.Register("a", NewMemoryStore())
		require.ErrorIs(t, err, ErrStoreExists)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		m := NewManager()
		_, err := m.Get("nope")
		require.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("UnregisterUnknown", func(t *testing.T) {
		m := NewManager()
		err := m.Unregister("nope")
		require.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("Names", func(t *testing.T) {
		m := NewManager()
		require.NoError(t, m.Register("a", NewMemoryStore()))
		require.NoError(t, m.Register("b", NewMemoryStore()))
		assert.Equal(t, []string{"a", "b"}, m.Names())
		assert.Equal(t, 2, m.Len())
	})
}
