package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("default env should be development")
	}
	if cfg.GetAddr() != "0.0.0.0:8080" {
		t.Errorf("addr = %q, want 0.0.0.0:8080", cfg.GetAddr())
	}
	if cfg.Game.TeamVoteTimeout != 0 || cfg.Game.MissionTimeout != 0 {
		t.Error("ballot timeouts should default to disabled")
	}
	if !cfg.Game.BotsEnabled {
		t.Error("bots should default to enabled")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("TEAM_VOTE_TIMEOUT", "45s")
	t.Setenv("BOTS_ENABLED", "false")
	t.Setenv("ROOM_CODE_LENGTH", "8")

	cfg := Load()

	if cfg.Server.Port != "9000" {
		t.Errorf("port = %q, want 9000", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Error("env should be production")
	}
	if cfg.Game.TeamVoteTimeout != 45*time.Second {
		t.Errorf("team vote timeout = %v, want 45s", cfg.Game.TeamVoteTimeout)
	}
	if cfg.Game.BotsEnabled {
		t.Error("bots should be disabled")
	}
	if cfg.Game.RoomCodeLength != 8 {
		t.Errorf("room code length = %d, want 8", cfg.Game.RoomCodeLength)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("ROOM_CODE_LENGTH", "six")
	t.Setenv("MISSION_TIMEOUT", "soon")
	t.Setenv("BOTS_ENABLED", "sure")

	cfg := Load()

	if cfg.Game.RoomCodeLength != 6 {
		t.Errorf("room code length = %d, want default 6", cfg.Game.RoomCodeLength)
	}
	if cfg.Game.MissionTimeout != 0 {
		t.Errorf("mission timeout = %v, want default 0", cfg.Game.MissionTimeout)
	}
	if !cfg.Game.BotsEnabled {
		t.Error("bots flag should fall back to default true")
	}
}
