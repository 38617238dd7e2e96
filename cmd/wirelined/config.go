package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/wireline/internal/relay"
)

// wirelined config.toml key mapping to relay runtime settings.
type fileConfig struct {
	ID                string   `toml:"id"`
	Addr              string   `toml:"addr"`
	AdminListenAddr   string   `toml:"admin_listen_addr"`
	CORSOrigins       []string `toml:"cors_origins"`
	PacketBufferSize  int      `toml:"packet_buffer_size"`
	MinimumPacketSize int      `toml:"minimum_packet_size"`
	PingInterval      string   `toml:"ping_interval"`
	PingIntervalMS    int64    `toml:"ping_interval_ms"`
	MaxPingAttempts   int      `toml:"max_ping_attempts"`
	NoDelay           bool     `toml:"no_delay"`
	SendBufferSize    int      `toml:"send_buffer_size"`
	ReceiveBufferSize int      `toml:"receive_buffer_size"`
}

// wirelined loader for TOML config with default overlay.
func loadServiceConfig(path string) (relay.ServiceConfig, error) {
	cfg := relay.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return relay.ServiceConfig{}, fmt.Errorf("load wirelined config: %w", err)
	}

	if meta.IsDefined("id") {
		if id := strings.TrimSpace(raw.ID); id != "" {
			cfg.NodeID = id
		}
	}
	if meta.IsDefined("addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeOrigins(raw.CORSOrigins)
	}
	if meta.IsDefined("packet_buffer_size") {
		cfg.Conn.PacketBufferSize = raw.PacketBufferSize
	}
	if meta.IsDefined("minimum_packet_size") {
		cfg.Conn.MinimumPacketSize = raw.MinimumPacketSize
	}
	if meta.IsDefined("ping_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PingInterval))
		if err != nil {
			return relay.ServiceConfig{}, fmt.Errorf("parse ping_interval: %w", err)
		}
		cfg.Conn.PingInterval = d
	}
	if meta.IsDefined("ping_interval_ms") {
		cfg.Conn.PingInterval = time.Duration(raw.PingIntervalMS) * time.Millisecond
	}
	if meta.IsDefined("max_ping_attempts") {
		cfg.Conn.MaxPingAttempts = raw.MaxPingAttempts
	}
	if meta.IsDefined("no_delay") {
		cfg.Conn.NoDelay = raw.NoDelay
	}
	if meta.IsDefined("send_buffer_size") {
		cfg.Conn.SendBufferSize = raw.SendBufferSize
	}
	if meta.IsDefined("receive_buffer_size") {
		cfg.Conn.ReceiveBufferSize = raw.ReceiveBufferSize
	}

	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
