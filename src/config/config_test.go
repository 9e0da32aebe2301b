package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.BindAddr != DefaultBindAddr {
		t.Fatalf("BindAddr should be %s, not %s", DefaultBindAddr, config.BindAddr)
	}
	if config.RPCTimeout != 10000*time.Millisecond {
		t.Fatalf("RPCTimeout should be 10s, not %v", config.RPCTimeout)
	}
	if config.Store {
		t.Fatalf("Store should default to false")
	}
	if config.DirectoryURL != "" {
		t.Fatalf("DirectoryURL should default to empty, not %q", config.DirectoryURL)
	}
}

func TestSetDataDir(t *testing.T) {
	config := NewTestConfig(t)

	config.SetDataDir("/tmp/branch1")

	if config.DataDir != "/tmp/branch1" {
		t.Fatalf("DataDir should be /tmp/branch1, not %s", config.DataDir)
	}
	if config.DatabaseDir != filepath.Join("/tmp/branch1", DefaultBadgerFile) {
		t.Fatalf("DatabaseDir should follow DataDir, got %s", config.DatabaseDir)
	}
	if config.PeersFile() != filepath.Join("/tmp/branch1", DefaultPeersFile) {
		t.Fatalf("PeersFile should follow DataDir, got %s", config.PeersFile())
	}

	// An explicit database dir is not overridden
	config.DatabaseDir = "/var/db/custom"
	config.SetDataDir("/tmp/branch2")

	if config.DatabaseDir != "/var/db/custom" {
		t.Fatalf("explicit DatabaseDir should survive SetDataDir, got %s", config.DatabaseDir)
	}
}
