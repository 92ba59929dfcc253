package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/connauth/internal/config"
	"github.com/giantswarm/connauth/pkg/auth"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "connauth", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"version", "list", "headers", "token", "export", "protect", "connect", "watch"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), ExitCodeError},
		{"configuration", auth.NewConfigurationError("oauth2ClientId", "required"), ExitCodeConfiguration},
		{"wrapped configuration", fmt.Errorf("resolve: %w", auth.NewConfigurationError("apiKey", "x")), ExitCodeConfiguration},
		{"config file validation", fmt.Errorf("load: %w", config.ValidationErrors{{Field: "logLevel", Message: "bad"}}), ExitCodeConfiguration},
		{"transport", &auth.TransportError{Endpoint: "https://idp", StatusCode: 401}, ExitCodeTransport},
		{"token", &auth.TokenError{Endpoint: "https://idp", Reason: "empty access_token"}, ExitCodeToken},
		{"canceled", context.Canceled, ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()
	rootCmd.Version = "1.2.3-test"

	versionCmd := newVersionCmd()
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, []string{})

	require.Equal(t, "connauth version 1.2.3-test\n", buf.String())
}
