package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messageboard/internal/config"
	"messageboard/internal/tenant"
)

func TestTableFor(t *testing.T) {
	cfg := &config.Config{TablePrefix: "message_assistance_"}

	table, err := tableFor(cfg, "acme")
	require.NoError(t, err)
	assert.Equal(t, "message_assistance_acme", table)

	_, err = tableFor(cfg, "acme; DROP TABLE x")
	assert.ErrorIs(t, err, tenant.ErrInvalidTenant)

	_, err = tableFor(cfg, "")
	assert.ErrorIs(t, err, tenant.ErrMissingTenant)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["provision"])
	assert.True(t, names["check"])
}

func TestPrepareRequiresTenant(t *testing.T) {
	tenantName = ""
	_, _, err := prepare()
	assert.EqualError(t, err, "--tenant is required")
}
