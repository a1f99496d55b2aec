package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeFailsWithoutAPIKey(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")
	t.Setenv("MCP_POLYGON_POLYGON_API_KEY", "")

	_, err := runCommand(t, "serve")
	require.Error(t, err)
	require.Contains(t, err.Error(), "POLYGON_API_KEY")
}
