package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndSetDefaultsFillsWorkerCount(t *testing.T) {
	cfg := Default()
	cfg.Indexing.Workers = 0

	require.NoError(t, NewValidator().ValidateAndSetDefaults(&cfg))
	assert.NotZero(t, cfg.Indexing.Workers)
}

func TestValidateAndSetDefaultsFillsResultLimit(t *testing.T) {
	cfg := Default()
	cfg.Server.ResultLimit = 0

	require.NoError(t, NewValidator().ValidateAndSetDefaults(&cfg))
	assert.Equal(t, 20, cfg.Server.ResultLimit)
}

func TestValidateRejectsEmptyDatabasePath(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = ""
	assert.Error(t, ValidateConfig(&cfg))
}

func TestValidateRejectsEmptyListenAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.ListenAddr = ""
	assert.Error(t, ValidateConfig(&cfg))
}

func TestValidateRejectsNegativeWorkers(t *testing.T) {
	cfg := Default()
	cfg.Indexing.Workers = -1
	assert.Error(t, ValidateConfig(&cfg))
}

func TestValidateRejectsLopsidedAdminCredentials(t *testing.T) {
	cfg := Default()
	cfg.Server.AdminUser = "root"
	cfg.Server.AdminPassword = ""
	assert.Error(t, ValidateConfig(&cfg))
}

func TestValidateAcceptsMatchingAdminCredentials(t *testing.T) {
	cfg := Default()
	cfg.Server.AdminUser = "root"
	cfg.Server.AdminPassword = "hunter2"
	assert.NoError(t, ValidateConfig(&cfg))
}
