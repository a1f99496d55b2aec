package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthcheckCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	out, err := runCommand(t, "healthcheck", "--port", u.Port())
	require.NoError(t, err)
	require.Contains(t, out, "ok")
}

func TestHealthcheckCommandFailsWhenDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	_, err = runCommand(t, "healthcheck", "--port", u.Port())
	require.Error(t, err)
}

func TestPortFromEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	require.Equal(t, 9100, portFromEnv(8000))

	t.Setenv("PORT", "not-a-port")
	require.Equal(t, 8000, portFromEnv(8000))

	t.Setenv("PORT", "")
	require.Equal(t, 8000, portFromEnv(8000))
}
