package lastused

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Write(dir, "/home/dev/habitats/demo.yaml"))
	assert.Equal(t, "/home/dev/habitats/demo.yaml", Read(dir))
}

func TestReadToleratesAbsence(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", Read(dir))
}

func TestWriteOverwritesPreviousValue(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Write(dir, "/first.yaml"))
	require.NoError(t, Write(dir, "/second.yaml"))
	assert.Equal(t, "/second.yaml", Read(dir))
}
