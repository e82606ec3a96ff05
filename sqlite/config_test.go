package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	config, err := ParseConfig("path=/tmp/test.db")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", config.Path)
	assert.Equal(t, 10, config.MaxConnections)
	assert.Equal(t, 5*time.Second, config.BusyTimeout)
	assert.False(t, config.ForeignKeys)
}

func TestParseConfigOverrides(t *testing.T) {
	config, err := ParseConfig("path=/tmp/test.db max_connections=2 busy_timeout=250 foreign_keys=true")

	require.NoError(t, err)
	assert.Equal(t, 2, config.MaxConnections)
	assert.Equal(t, 250*time.Millisecond, config.BusyTimeout)
	assert.True(t, config.ForeignKeys)
}

func TestParseConfigRequiresPath(t *testing.T) {
	_, err := ParseConfig("max_connections=2")

	require.Error(t, err)
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	for _, options := range []string{
		"path=/tmp/test.db max_connections=zero",
		"path=/tmp/test.db max_connections=0",
		"path=/tmp/test.db busy_timeout=-1",
		"path=/tmp/test.db foreign_keys=maybe",
	} {
		_, err := ParseConfig(options)
		assert.Error(t, err, "options: %q", options)
	}
}

func TestConfigDSN(t *testing.T) {
	config, err := ParseConfig("path=/tmp/test.db busy_timeout=250 foreign_keys=true")
	require.NoError(t, err)

	assert.Equal(t, "file:/tmp/test.db?_pragma=busy_timeout(250)&_pragma=foreign_keys(1)", config.dsn())

	config, err = ParseConfig("path=/tmp/test.db busy_timeout=0")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", config.dsn())
}
