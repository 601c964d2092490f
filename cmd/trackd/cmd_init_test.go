package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCmd_CreatesHomeAndTracker(t *testing.T) {
	home := filepath.Join(t.TempDir(), "trackd")
	t.Setenv("TRACKD_HOME", home)
	t.Setenv("TRACKD_CONFIG", "")

	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"init"})

	if err := root.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
		t.Errorf("config.yaml should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "tracker", "data", "activity-log.json")); err != nil {
		t.Errorf("activity store should exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "tracker", "meta.json")); err != nil {
		t.Errorf("root meta record should exist: %v", err)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	home := filepath.Join(t.TempDir(), "trackd")
	t.Setenv("TRACKD_HOME", home)
	t.Setenv("TRACKD_CONFIG", "")

	for range 2 {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs([]string{"init"})
		if err := root.Execute(); err != nil {
			t.Fatalf("init command failed: %v", err)
		}
	}

	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"init"})
	if err := root.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if !strings.Contains(buf.String(), "exists") {
		t.Errorf("repeat init should report existing files, got: %q", buf.String())
	}
}
