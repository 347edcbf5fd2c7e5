package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	v := map[string]any{"k": "v", "n": float64(3)}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b, err := c.Marshal(v)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, c.Unmarshal(b, &got))
		assert.Equal(t, v, got)
	}

	a := MustMarshal(JSON{}, v)
	b := MustMarshal(GoJSON{}, v)
	assert.JSONEq(t, string(a), string(b))
}
