package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-systembus/internal/auth"
	"github.com/nerrad567/gray-logic-systembus/internal/bus"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_Demo runs the reference scenario with every sink disabled.
func TestRun_Demo(t *testing.T) {
	configPath := writeConfig(t, `
bus:
  max_devices: 4
logging:
  level: error
  output: stderr
`)

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, []string{"-config", configPath}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	want := "Data read from device 1: 0\nData read from device 2: 123\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

// TestRun_AuditLog verifies run opens and migrates the audit database.
func TestRun_AuditLog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "audit.db")
	configPath := writeConfig(t, `
database:
  enabled: true
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
logging:
  level: error
  output: stderr
`)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-config", configPath}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("audit database not created: %v", err)
	}
}

// TestRun_APIServesUntilCancelled verifies the API mode blocks until shutdown
// and skips the demo.
func TestRun_APIServesUntilCancelled(t *testing.T) {
	configPath := writeConfig(t, `
api:
  enabled: true
  host: "127.0.0.1"
  port: 0
logging:
  level: error
  output: stderr
`)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	if err := run(ctx, []string{"-config", configPath}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("demo output %q, want none in API mode", out.String())
	}
}

// TestRun_Token verifies -token prints a token the API accepts.
func TestRun_Token(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	configPath := writeConfig(t, `
api:
  auth:
    jwt_secret: "`+secret+`"
`)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-config", configPath, "-token", "operator"}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	claims, err := auth.ParseToken(strings.TrimSpace(out.String()), secret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Role != auth.RoleOperator {
		t.Errorf("Role = %q, want operator", claims.Role)
	}

	if err := run(context.Background(), []string{"-config", configPath, "-token", "root"}, &out); err == nil {
		t.Error("run() should reject an unknown role")
	}
}

// TestRun_InvalidConfig verifies run fails with an explicit missing config path.
func TestRun_InvalidConfig(t *testing.T) {
	err := run(context.Background(), []string{"-config", "/nonexistent/path/config.yaml"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_ValidationFailure verifies run rejects an invalid config.
func TestRun_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
bus:
  max_devices: 1
  devices:
    - {id: 1, address: 0x10}
    - {id: 2, address: 0x20}
`)

	err := run(context.Background(), []string{"-config", configPath}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("run() should fail when the manifest exceeds the capacity")
	}
}

// TestRun_UnknownFlag verifies flag errors are returned.
func TestRun_UnknownFlag(t *testing.T) {
	if err := run(context.Background(), []string{"-bogus"}, &bytes.Buffer{}); err == nil {
		t.Fatal("run() should fail with an unknown flag")
	}
}

func TestParseFlags(t *testing.T) {
	t.Run("default path", func(t *testing.T) {
		t.Setenv(configEnvVar, "")

		opts, err := parseFlags(nil)
		if err != nil {
			t.Fatalf("parseFlags() error = %v", err)
		}
		if opts.configPath != defaultConfigPath || opts.configExplicit {
			t.Errorf("config = (%q, %v), want (%q, false)", opts.configPath, opts.configExplicit, defaultConfigPath)
		}
		if opts.demo || opts.interactive {
			t.Errorf("demo=%v interactive=%v, want both false", opts.demo, opts.interactive)
		}
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv(configEnvVar, "/custom/path/config.yaml")

		opts, _ := parseFlags(nil)
		if opts.configPath != "/custom/path/config.yaml" || !opts.configExplicit {
			t.Errorf("config = (%q, %v), want env path, explicit", opts.configPath, opts.configExplicit)
		}
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(configEnvVar, "/custom/path/config.yaml")

		opts, _ := parseFlags([]string{"-config", "other.yaml"})
		if opts.configPath != "other.yaml" {
			t.Errorf("configPath = %q, want other.yaml", opts.configPath)
		}
	})

	t.Run("interactive", func(t *testing.T) {
		opts, _ := parseFlags([]string{"-interactive", "-demo"})
		if !opts.interactive || !opts.demo {
			t.Errorf("interactive=%v demo=%v, want both true", opts.interactive, opts.demo)
		}
	})
}

func TestLoadConfig_MissingDefaultFallsBack(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := loadConfig(options{configPath: defaultConfigPath})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Bus.MaxDevices != bus.DefaultMaxDevices {
		t.Errorf("MaxDevices = %d, want %d", cfg.Bus.MaxDevices, bus.DefaultMaxDevices)
	}

	if _, err := loadConfig(options{configPath: defaultConfigPath, configExplicit: true}); err == nil {
		t.Error("loadConfig() should fail for a missing explicit path")
	}
}

func TestRegisterManifest(t *testing.T) {
	b := bus.NewSynced(bus.New(bus.WithCapacity(2)))

	n := registerManifest(b, []config.DeviceConfig{
		{ID: 1, Address: 0x10},
		{ID: 2, Address: 0x20},
		{ID: 3, Address: 0x30},
	})

	if n != 2 {
		t.Errorf("registerManifest() = %d, want 2", n)
	}
	if devices := b.Devices(); len(devices) != 2 || devices[1].ID != 2 {
		t.Errorf("Devices() = %+v, want ids [1 2]", devices)
	}
}

func TestRunDemo_ResetsBus(t *testing.T) {
	b := bus.NewSynced(bus.New())
	_ = b.AddDevice(9, 0x90)

	var out bytes.Buffer
	runDemo(b, &out)

	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
	if !strings.Contains(out.String(), "device 2: 123") {
		t.Errorf("output = %q", out.String())
	}
}
