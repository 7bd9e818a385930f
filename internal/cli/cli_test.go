package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/gbdrill/internal/model"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GBDRILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)

	def := model.DefaultConfig()
	assert.Equal(t, def.Server.Addr, cfg.Server.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, model.DefaultDeniedCauses, cfg.Data.DeniedCauses)
	assert.Equal(t, "$.causes", cfg.Data.CausesSelector)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GBDRILL_SERVER_ADDR", ":9000")
	t.Setenv("GBDRILL_SERVER_MAX_CONNECTIONS", "12")
	t.Setenv("GBDRILL_CACHE_TTL", "30s")
	t.Setenv("GBDRILL_DATA_METRIC", "Number")

	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 12, cfg.Server.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "Number", cfg.Data.Metric)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data:
  facts_db: /srv/gbd.db
  denied_causes: [294]
server:
  requests_per_second: 0
`), 0o600))

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "/srv/gbd.db", cfg.Data.FactsDB)
	assert.Equal(t, []int{294}, cfg.Data.DeniedCauses)
	assert.Zero(t, cfg.Server.RequestsPerSecond)
	assert.Equal(t, "data/filtered_hierarchical_causes.json", cfg.Data.HierarchyPath)
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".gbdrill", "config.yaml")
	require.NoError(t, initConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, model.DefaultConfig().Server.Addr, cfg.Server.Addr)
	assert.Equal(t, model.DefaultDeniedCauses, cfg.Data.DeniedCauses)

	err = initConfigFile(path)
	assert.ErrorContains(t, err, "already exists")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, []model.Child{{ID: 2, Name: "B", Value: 1.5}}, false))
	assert.JSONEq(t, `[{"id":2,"name":"B","cause_code":"","has_children":false,"value":1.5}]`, buf.String())

	buf.Reset()
	require.NoError(t, printJSON(&buf, map[string]int{"a": 1}, true))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "gbdrill v0.1.0\n", buf.String())
}
