package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signage-player/internal/inventory"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SIGNAGE_LOGGING_LEVEL", "error")
	chdir(t, t.TempDir())
	return t.TempDir()
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "signage dev")
}

func TestGroupsLifecycle(t *testing.T) {
	dir := isolate(t)
	run := func(stdin string, args ...string) string {
		t.Helper()
		out, err := execute(t, stdin, append(args, "--data-dir", dir)...)
		require.NoError(t, err, args)
		return out
	}

	assert.Contains(t, run("", "groups", "list"), "no groups")

	run("", "groups", "add", "Lobby")
	run("", "groups", "add", "Menu", "Board")
	out := run("", "groups", "list")
	assert.Contains(t, out, "1  Lobby")
	assert.Contains(t, out, "2  Menu Board")

	assert.Contains(t, run("", "groups", "rename", "2", "Specials"), `"Specials"`)
	assert.Contains(t, run("", "groups", "list"), "Specials")

	assert.Contains(t, run("n\n", "groups", "rm", "Lobby"), "cancelled")
	assert.Contains(t, run("", "groups", "list"), "Lobby")

	assert.Contains(t, run("y\n", "groups", "rm", "1"), `deleted "Lobby"`)
	assert.Contains(t, run("", "groups", "rm", "--yes", "Specials"), `deleted "Specials"`)
	assert.Contains(t, run("", "groups", "list"), "no groups")
}

func TestGroupsErrors(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "", "groups", "add", "  ", "--data-dir", dir)
	assert.Error(t, err)
	_, err = execute(t, "", "groups", "rm", "--yes", "7", "--data-dir", dir)
	assert.Error(t, err)
	_, err = execute(t, "", "groups", "fetch", "--data-dir", dir)
	assert.Error(t, err, "no inventory url configured")
}

func TestInventoryTable(t *testing.T) {
	dir := isolate(t)
	sql := filepath.Join(dir, "inventory.db")
	kv := filepath.Join(dir, "cache.db")

	_, err := execute(t, "", "inventory", "add", "https://cdn/banner.png", "--data-dir", dir)
	assert.ErrorIs(t, err, inventory.ErrNotConfigured)

	out, err := execute(t, "", "inventory", "add", "https://cdn/x/banner.png", "--sql", sql, "--kv", kv, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "added #1")

	out, err = execute(t, "", "inventory", "ls", "--sql", sql, "--kv", kv, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "banner.png")
	assert.Contains(t, out, "image/png")

	_, err = execute(t, "", "inventory", "rm", "1", "--sql", sql, "--kv", kv, "--data-dir", dir)
	require.NoError(t, err)
	out, err = execute(t, "", "inventory", "ls", "--sql", sql, "--kv", kv, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "inventory is empty", "removal drops the cached copy")
}

func TestInventoryList(t *testing.T) {
	dir := isolate(t)
	kv := filepath.Join(dir, "list.db")

	_, err := execute(t, "", "inventory", "add", "--list", "--name", "Promo", "https://cdn/promo.png", "--kv", kv, "--data-dir", dir)
	require.NoError(t, err)

	out, err := execute(t, "", "inventory", "ls", "--kv", kv, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Promo")
	assert.Contains(t, out, "https://cdn/promo.png")

	out, err = execute(t, "", "inventory", "clear-cache", "--kv", kv, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "cache cleared")
}
