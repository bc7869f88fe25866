package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeOperatorIDs(t *testing.T) {
	ops := []Operator{{ID: 1, Email: "a@example.com"}}

	merged := MergeOperatorIDs(ops, " 2, 1 ,x,3,,2")
	ids := make([]int64, 0, len(merged))
	for _, op := range merged {
		ids = append(ids, op.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, "a@example.com", merged[0].Email)

	assert.Len(t, MergeOperatorIDs(nil, ""), 0)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Mode: "release"},
			Database:  DatabaseConfig{Driver: "mysql"},
			JWT:       JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Scheduler: SchedulerConfig{SweepInterval: time.Minute},
		}
	}
	require.NoError(t, valid().Validate())

	short := valid()
	short.JWT.Secret = "short"
	assert.Error(t, short.Validate())

	debug := valid()
	debug.Server.Mode = "debug"
	debug.JWT.Secret = "short"
	assert.NoError(t, debug.Validate(), "weak secrets are tolerated outside release")

	noSweep := valid()
	noSweep.Scheduler.SweepInterval = 0
	assert.Error(t, noSweep.Validate())

	negative := valid()
	negative.Scheduler.LateTolerance = -time.Second
	assert.Error(t, negative.Validate())

	driver := valid()
	driver.Database.Driver = "sqlite"
	assert.Error(t, driver.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  mode: debug
database:
  driver: memory
jwt:
  secret: dev
  expire_hours: 2
storage:
  type: s3
scheduler:
  sweep_interval: 30s
  late_tolerance: 15s
admin:
  operators:
    - id: 10
      email: lead@example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("ADMIN_USER_IDS", "11,10")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.File())
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.SweepInterval)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.LateTolerance)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.InitialDelay)
	assert.Equal(t, "log", cfg.Notify.Driver)
	require.Len(t, cfg.Admin.Operators, 2)
	assert.Equal(t, int64(11), cfg.Admin.Operators[1].ID)
}

func TestConfigFile_DefaultsToConfigsDir(t *testing.T) {
	assert.Equal(t, filepath.Join("configs", "config.yaml"), (&Config{}).File())
}
