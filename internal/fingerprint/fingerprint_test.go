package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func staticCollector(value string) func() (string, bool) {
	return func() (string, bool) { return value, true }
}

func missingCollector() (string, bool) { return "", false }

func newTestGenerator(t *testing.T, collectors ...func() (string, bool)) *Generator {
	t.Helper()

	g := New(filepath.Join(t.TempDir(), "install.id"), zap.NewNop().Sugar())
	g.collectors = collectors

	return g
}

func TestGenerateDeterministic(t *testing.T) {
	g := newTestGenerator(t, staticCollector("platform:linux"), staticCollector("host:abc"))

	first, err := g.Generate()
	require.NoError(t, err)
	require.Len(t, first, 64, "expected hex-encoded SHA-256")

	second, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, g.Degraded())

	// A fresh generator over the same identifiers produces the same value.
	other := newTestGenerator(t, staticCollector("platform:linux"), staticCollector("host:abc"))

	restart, err := other.Generate()
	require.NoError(t, err)
	assert.Equal(t, first, restart)
}

func TestGenerateDistinguishesMachines(t *testing.T) {
	a := newTestGenerator(t, staticCollector("host:machine-a"))
	b := newTestGenerator(t, staticCollector("host:machine-b"))

	fpA, err := a.Generate()
	require.NoError(t, err)

	fpB, err := b.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, fpA, fpB)
}

func TestGenerateFallbackInstallID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "install.id")

	g := New(path, zap.NewNop().Sugar())
	g.collectors = []func() (string, bool){missingCollector}

	first, err := g.Generate()
	require.NoError(t, err)
	assert.True(t, g.Degraded())

	// The id file is persisted and a new generator reuses it.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	other := New(path, zap.NewNop().Sugar())
	other.collectors = []func() (string, bool){missingCollector}

	again, err := other.Generate()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestDefaultCollectorsProduceValue(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "install.id"), zap.NewNop().Sugar())

	fp, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, fp, 64)
}
