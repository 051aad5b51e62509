package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Use(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
}

func TestServeCmd_HasListenFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("listen")
	require.NotNil(t, flag, "listen flag should exist")
	assert.Equal(t, "l", flag.Shorthand)
}

func TestServeCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "serve", "extra")

	assert.Error(t, err)
}

func TestMCPServeCmd_HasPortFlag(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "port flag should exist")
	assert.Equal(t, "0", flag.DefValue)
}
