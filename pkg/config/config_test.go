package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

const validYAML = `
logLevel: debug
dataDir: /var/lib/craftybroker
refreshInterval: 15s
servers:
  - name: survival
    type: crafty
    crafty:
      serverID: abc123
      token: secret
      craftyAddress: https://crafty:8443
      address: 10.0.0.5:25566
  - name: creative
    type: crafty
    crafty:
      serverID: def456
      token: secret2
      craftyAddress: http://crafty:8000
      insecureMode: true
      legacyKill: true
`

func TestParseValid(t *testing.T) {
	f, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", f.LogLevel)
	assert.Equal(t, "/var/lib/craftybroker", f.DataDir)
	assert.Equal(t, 15*time.Second, f.RefreshInterval.Std())
	assert.Equal(t, DefaultMetricsAddr, f.MetricsAddr)

	require.Len(t, f.Servers, 2)
	assert.Equal(t, types.BrokerKindCrafty, f.Servers[0].Type)
	assert.Equal(t, "abc123", f.Servers[0].Crafty.ServerID)
	assert.True(t, f.Servers[1].Crafty.InsecureMode)
	assert.True(t, f.Servers[1].Crafty.LegacyKill)
}

func TestParseDefaults(t *testing.T) {
	f, err := Parse([]byte("servers: []"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDataDir, f.DataDir)
	assert.Equal(t, DefaultMetricsAddr, f.MetricsAddr)
	assert.Equal(t, DefaultRefreshInterval, f.RefreshInterval.Std())
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	yaml := `
servers:
  - name: survival
    type: crafty
    crafty: {serverID: a, token: t, craftyAddress: "http://c:8000"}
  - name: survival
    type: crafty
    crafty: {serverID: b, token: t, craftyAddress: "http://c:8000"}
`
	_, err := Parse([]byte(yaml))
	assert.ErrorContains(t, err, "duplicate server name")
}

func TestParseRejectsUnknownType(t *testing.T) {
	yaml := `
servers:
  - name: survival
    type: pterodactyl
`
	_, err := Parse([]byte(yaml))
	assert.ErrorContains(t, err, "pterodactyl")
}

func TestParseRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "servers:\n  - type: crafty\n    crafty: {serverID: a, token: t, craftyAddress: x}",
			want: "name is required",
		},
		{
			name: "missing serverID",
			yaml: "servers:\n  - name: s\n    type: crafty\n    crafty: {token: t, craftyAddress: x}",
			want: "serverID is required",
		},
		{
			name: "missing token",
			yaml: "servers:\n  - name: s\n    type: crafty\n    crafty: {serverID: a, craftyAddress: x}",
			want: "token is required",
		},
		{
			name: "missing craftyAddress",
			yaml: "servers:\n  - name: s\n    type: crafty\n    crafty: {serverID: a, token: t}",
			want: "craftyAddress is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("servers: ["))
	assert.Error(t, err)
}
