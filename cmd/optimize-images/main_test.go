package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeImagesCommand(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 400, 4))))
	require.NoError(t, f.Close())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--dir", dir, "--workers", "2"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "created=1")
	assert.FileExists(t, filepath.Join(dir, "logo.webp"))
	assert.FileExists(t, filepath.Join(dir, "logo-320.webp"))
	assert.NoFileExists(t, filepath.Join(dir, "logo-640.webp"))
}
