package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/trackabledocs/internal/services"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateAndInspect(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dados.csv")
	require.NoError(t, os.WriteFile(input, []byte("ID_UNICO,Nome\nDOC123,Maria\n"), 0644))
	output := filepath.Join(dir, "out.zip")

	stdout, err := execute(t, "generate", input, "-o", output, "--base-url", "http://x/doc/", "--manifest")
	require.NoError(t, err)

	var entries []services.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "DOC123_rastreavel.pdf", entries[0].Name)
	assert.Equal(t, "http://x/doc/DOC123", entries[0].TrackingURL)

	stdout, err = execute(t, "inspect", output)
	require.NoError(t, err)
	assert.Contains(t, stdout, "DOC123_rastreavel.pdf")
	assert.Contains(t, stdout, "NAME")
}

func TestGenerateRejectsInvalidSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dados.csv")
	require.NoError(t, os.WriteFile(input, []byte("Nome\nMaria\n"), 0644))

	_, err := execute(t, "generate", input, "-o", filepath.Join(dir, "out.zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ID_UNICO")
	assert.NoFileExists(t, filepath.Join(dir, "out.zip"))
}

func TestGenerateRejectsUnsupportedInput(t *testing.T) {
	_, err := execute(t, "generate", "notes.txt")
	assert.Error(t, err)
}
