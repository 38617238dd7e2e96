package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServiceConfigDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.toml")
	content := `
id = "wirelined.alpha"
addr = "127.0.0.1:9150"
admin_listen_addr = "127.0.0.1:9151"
cors_origins = ["http://localhost:3000", " "]
packet_buffer_size = 16384
minimum_packet_size = 8
ping_interval = "500ms"
max_ping_attempts = 5
no_delay = false
send_buffer_size = 65536
receive_buffer_size = 65536
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NodeID != "wirelined.alpha" {
		t.Fatalf("unexpected node id: %q", cfg.NodeID)
	}
	if cfg.ListenAddr != "127.0.0.1:9150" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.AdminListenAddr != "127.0.0.1:9151" {
		t.Fatalf("unexpected admin addr: %q", cfg.AdminListenAddr)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.Conn.PacketBufferSize != 16384 {
		t.Fatalf("unexpected buffer size: %d", cfg.Conn.PacketBufferSize)
	}
	if cfg.Conn.MinimumPacketSize != 8 {
		t.Fatalf("unexpected minimum size: %d", cfg.Conn.MinimumPacketSize)
	}
	if cfg.Conn.PingInterval != 500*time.Millisecond {
		t.Fatalf("unexpected ping interval: %v", cfg.Conn.PingInterval)
	}
	if cfg.Conn.MaxPingAttempts != 5 {
		t.Fatalf("unexpected ping attempts: %d", cfg.Conn.MaxPingAttempts)
	}
	if cfg.Conn.NoDelay {
		t.Fatalf("expected no_delay disabled")
	}
	if cfg.Conn.SendBufferSize != 65536 || cfg.Conn.ReceiveBufferSize != 65536 {
		t.Fatalf("unexpected socket buffers: %d/%d", cfg.Conn.SendBufferSize, cfg.Conn.ReceiveBufferSize)
	}
}

func TestLoadServiceConfigDefaultsWhenKeysAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`id = "wirelined.beta"`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NodeID != "wirelined.beta" {
		t.Fatalf("unexpected node id: %q", cfg.NodeID)
	}
	if cfg.ListenAddr != ":9100" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.Conn.PacketBufferSize != 8192 {
		t.Fatalf("unexpected buffer size: %d", cfg.Conn.PacketBufferSize)
	}
	if cfg.Conn.PingInterval != time.Second {
		t.Fatalf("unexpected ping interval: %v", cfg.Conn.PingInterval)
	}
	if cfg.Conn.MaxPingAttempts != 3 {
		t.Fatalf("unexpected ping attempts: %d", cfg.Conn.MaxPingAttempts)
	}
	if !cfg.Conn.NoDelay {
		t.Fatalf("expected no_delay enabled by default")
	}
}
