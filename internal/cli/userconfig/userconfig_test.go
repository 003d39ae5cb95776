package userconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSelectedServer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	selected, err := GetSelectedServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected != "" {
		t.Errorf("expected no selection, got %q", selected)
	}

	if err := SetSelectedServer("staging"); err != nil {
		t.Fatalf("SetSelectedServer failed: %v", err)
	}

	selected, err = GetSelectedServer()
	if err != nil || selected != "staging" {
		t.Errorf("expected staging, got %q (%v)", selected, err)
	}

	if _, err := os.Stat(filepath.Join(home, ".config", "planifika", "config.yaml")); err != nil {
		t.Errorf("expected config file to exist: %v", err)
	}
}

func TestLastEmail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SetSelectedServer("production"); err != nil {
		t.Fatal(err)
	}
	if err := SetLastEmail("production", "ana@drimsoft.com"); err != nil {
		t.Fatalf("SetLastEmail failed: %v", err)
	}

	email, err := LastEmail("production")
	if err != nil || email != "ana@drimsoft.com" {
		t.Errorf("expected remembered email, got %q (%v)", email, err)
	}
	if email, _ := LastEmail("staging"); email != "" {
		t.Errorf("expected no email for another server, got %q", email)
	}

	// The selection survives writing emails
	if selected, _ := GetSelectedServer(); selected != "production" {
		t.Errorf("expected production to stay selected, got %q", selected)
	}
}
