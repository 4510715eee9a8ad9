package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if c.Player.LazyInit || c.Player.DebugOutput || c.Storage.InMemory {
		t.Errorf("defaults not zero: %+v", c)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[player]
lazy-init = true
debug-output = true

[storage]
path = "/tmp/so.db"

[log]
verbosity = 2
`
	if err := os.WriteFile(filepath.Join(dir, "ruffle.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Player.LazyInit || !c.Player.DebugOutput {
		t.Errorf("player section not parsed: %+v", c.Player)
	}
	if c.Storage.Path != "/tmp/so.db" {
		t.Errorf("storage path = %q", c.Storage.Path)
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d", c.Log.Verbosity)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ruffle.toml"), []byte("[player\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted malformed TOML")
	}
}

func TestStoragePath(t *testing.T) {
	c := Default()
	c.Storage.Path = "/data/so.db"
	p, err := c.StoragePath()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/data/so.db" {
		t.Errorf("StoragePath() = %q", p)
	}

	c.Storage.Path = ""
	p, err = c.StoragePath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != "shared_objects.db" {
		t.Errorf("default StoragePath() = %q", p)
	}
}
