package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// GameConfig holds game-related configuration
type GameConfig struct {
	RoleRevealSeconds    int
	TeamVoteTimeout      time.Duration // 0 disables forced vote resolution
	MissionTimeout       time.Duration // 0 disables forced ballot resolution
	ReconnectGracePeriod time.Duration
	RoomCodeLength       int
	BotsEnabled          bool
	BotActionDelay       time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads the configuration from environment variables, falling back
// to defaults that suit local development
func Load() *Config {
	return &Config{
		Server:  loadServer(),
		Game:    loadGame(),
		Logging: loadLogging(),
	}
}

func loadServer() ServerConfig {
	return ServerConfig{
		Port: getEnv("PORT", "8080"),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),
	}
}

func loadGame() GameConfig {
	return GameConfig{
		RoleRevealSeconds:    getEnvInt("ROLE_REVEAL_SECONDS", 8),
		TeamVoteTimeout:      getEnvDuration("TEAM_VOTE_TIMEOUT", 0),
		MissionTimeout:       getEnvDuration("MISSION_TIMEOUT", 0),
		ReconnectGracePeriod: getEnvDuration("RECONNECT_GRACE_PERIOD", 2*time.Minute),
		RoomCodeLength:       getEnvInt("ROOM_CODE_LENGTH", 6),
		BotsEnabled:          getEnvBool("BOTS_ENABLED", true),
		BotActionDelay:       getEnvDuration("BOT_ACTION_DELAY", 750*time.Millisecond),
	}
}

func loadLogging() LoggingConfig {
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as a boolean or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration returns an environment variable parsed as a duration
// ("45s", "2m") or a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
