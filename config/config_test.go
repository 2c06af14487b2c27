package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, root string) {
	t.Setenv(RootEnv, root)
	for _, k := range []string{"WIKICRAWLER_TOKEN", "WIKICRAWLER_LOG_LEVEL", "WIKICRAWLER_USER_AGENT", "WIKICRAWLER_SEED"} {
		t.Setenv(k, "")
	}
}

func TestLoadWritesDefaults(t *testing.T) {
	root := t.TempDir()
	clearEnv(t, root)

	c, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(root), c); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}

	_, err = os.Stat(filepath.Join(root, "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(c, again, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("reload (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	clearEnv(t, root)

	filename := filepath.Join(root, "custom.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(`
similarity: jaro-winkler
rate: 1s
search_precaching: true
schedules:
  - cron: "0 * * * *"
    command: o auto 3 star
mqtt:
  qos: 2
`), 0644))

	c, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "jaro-winkler", c.Similarity)
	assert.Equal(t, time.Second, c.Rate)
	assert.True(t, c.SearchPrecaching)
	assert.Equal(t, []Schedule{{Cron: "0 * * * *", Command: "o auto 3 star"}}, c.Schedules)
	assert.Equal(t, byte(2), c.MQTT.QoS)
	assert.Equal(t, "wikicrawler/cmd", c.MQTT.CommandTopic)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.NotNil(t, c.Metric())
}

func TestEnvOverrides(t *testing.T) {
	root := t.TempDir()
	clearEnv(t, root)
	t.Setenv("WIKICRAWLER_TOKEN", "sekret")
	t.Setenv("WIKICRAWLER_LOG_LEVEL", "debug")
	t.Setenv("WIKICRAWLER_SEED", "42")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sekret", c.WikiAPIToken)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, int64(42), c.Seed)

	t.Setenv("WIKICRAWLER_SEED", "many")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoadBad(t *testing.T) {
	root := t.TempDir()
	clearEnv(t, root)

	filename := filepath.Join(root, "bad.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("similarity: soundex\n"), 0644))
	_, err := Load(filename)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filename, []byte("rate: [\n"), 0644))
	_, err = Load(filename)
	require.Error(t, err)
}

func TestPath(t *testing.T) {
	c := Default("/data")
	assert.Equal(t, filepath.Join("/data", "pages.db"), c.Path(c.DBFile))
	assert.Equal(t, "/elsewhere/pages.db", c.Path("/elsewhere/pages.db"))
	assert.Equal(t, "", c.Path(""))
	assert.Equal(t, filepath.Join("/data", "logs", "wikicrawler.log"), c.LogConfig().File)
}
