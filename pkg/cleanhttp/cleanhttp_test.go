package cleanhttp

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("routes through the proxy", func(t *testing.T) {
		c, err := NewClient("http://proxy.example:3128")
		require.NoError(t, err)

		req, err := http.NewRequest("GET", "http://maven.example/x.jar", nil)
		require.NoError(t, err)

		u, err := c.Transport.(*http.Transport).Proxy(req)
		require.NoError(t, err)

		assert.Equal(t, "proxy.example:3128", u.Host)
	})

	t.Run("rejects a malformed proxy", func(t *testing.T) {
		_, err := NewClient("http://[::1")
		require.Error(t, err)
	})

	t.Run("does not share transports", func(t *testing.T) {
		a, err := NewClient("")
		require.NoError(t, err)

		assert.NotSame(t, DefaultClient.Transport, a.Transport)
	})
}
