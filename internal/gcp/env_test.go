package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TRACKABLEDOCS_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("TRACKABLEDOCS_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("TRACKABLEDOCS_TEST_UNSET", "fallback"))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TRACKABLEDOCS_TEST_BOOL", "true")
	b, err := GetEnvBool("TRACKABLEDOCS_TEST_BOOL", false)
	require.NoError(t, err)
	assert.True(t, b)

	t.Setenv("TRACKABLEDOCS_TEST_BOOL", "")
	b, err = GetEnvBool("TRACKABLEDOCS_TEST_BOOL", true)
	require.NoError(t, err)
	assert.True(t, b)

	t.Setenv("TRACKABLEDOCS_TEST_BOOL", "sometimes")
	_, err = GetEnvBool("TRACKABLEDOCS_TEST_BOOL", false)
	assert.Error(t, err)
}

func TestGetEnvInt64(t *testing.T) {
	t.Setenv("TRACKABLEDOCS_TEST_INT", "4096")
	n, err := GetEnvInt64("TRACKABLEDOCS_TEST_INT", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), n)

	for _, bad := range []string{"0", "-5", "lots"} {
		t.Setenv("TRACKABLEDOCS_TEST_INT", bad)
		_, err := GetEnvInt64("TRACKABLEDOCS_TEST_INT", 1)
		assert.Error(t, err, bad)
	}
}

func TestURI(t *testing.T) {
	assert.Equal(t, "gs://out/b1/documentos_rastreaveis.zip", URI("out", "b1/documentos_rastreaveis.zip"))
}
