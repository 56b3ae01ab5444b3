package utils

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"eventdesk/src-client/query"
)

type Config struct {
	port string

	apiURL     string
	apiTimeout time.Duration

	queryStaleTime    time.Duration
	invalidateCascade query.CascadePolicy

	discordGuildID  string
	discordAppToken string
	discordClientId string

	location *time.Location

	metricCollectionInterval time.Duration

	sqlitePath   string
	imageBaseURL string

	notifyChannelID string
	notifyAhead     time.Duration
}

func durationEnv(name, fallback string) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		value = fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		slog.Error("invalid "+name, "value", value, "error", err)
		os.Exit(1)
	}
	slog.Debug("env", name, value, "duration", duration)
	return duration
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		apiURL: func() string {
			apiURL := strings.TrimSuffix(os.Getenv("API_URL"), "/")
			if apiURL == "" {
				slog.Error("API_URL is not set")
				os.Exit(1)
			}
			slog.Debug("env", "API_URL", apiURL)
			return apiURL
		}(),
		apiTimeout: durationEnv("API_TIMEOUT", "10s"),

		queryStaleTime: durationEnv("QUERY_STALE_TIME", "0s"),
		invalidateCascade: func() query.CascadePolicy {
			value := os.Getenv("INVALIDATE_CASCADE")
			policy, err := query.ParseCascadePolicy(value)
			if err != nil {
				slog.Error("invalid INVALIDATE_CASCADE", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "INVALIDATE_CASCADE", policy.String())
			return policy
		}(),

		discordGuildID: func() string {
			discordGuildID := os.Getenv("DISCORD_GUILD_ID")
			if discordGuildID == "" {
				slog.Warn("DISCORD_GUILD_ID is not set, commands will be registered globally")
			}
			slog.Debug("env", "DISCORD_GUILD_ID", discordGuildID)
			return discordGuildID
		}(),
		discordAppToken: func() string {
			discordAppToken := os.Getenv("DISCORD_APP_TOKEN")
			if len(discordAppToken) < 4 {
				slog.Warn("DISCORD_APP_TOKEN is not set, the bot is disabled")
				return ""
			}
			slog.Debug("env", "DISCORD_APP_TOKEN", discordAppToken[0:3]+"...")
			return discordAppToken
		}(),
		discordClientId: func() string {
			discordClientId := os.Getenv("DISCORD_CLIENT_ID")
			slog.Debug("env", "DISCORD_CLIENT_ID", discordClientId)
			return discordClientId
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),

		metricCollectionInterval: durationEnv("METRIC_COLLECTION_INTERVAL", "10s"),

		sqlitePath: func() string {
			sqlitePath := os.Getenv("SQLITE_PATH")
			if sqlitePath == "" {
				sqlitePath = "./sqlite.db"
			}
			slog.Debug("env", "SQLITE_PATH", sqlitePath)
			return sqlitePath
		}(),
		imageBaseURL: func() string {
			imageBaseURL := os.Getenv("IMAGE_BASE_URL")
			if imageBaseURL == "" {
				imageBaseURL = os.Getenv("API_URL")
			}
			slog.Debug("env", "IMAGE_BASE_URL", imageBaseURL)
			return imageBaseURL
		}(),

		notifyChannelID: func() string {
			notifyChannelID := os.Getenv("NOTIFY_CHANNEL_ID")
			if notifyChannelID == "" {
				slog.Info("NOTIFY_CHANNEL_ID is not set, upcoming events won't be announced")
			}
			slog.Debug("env", "NOTIFY_CHANNEL_ID", notifyChannelID)
			return notifyChannelID
		}(),
		notifyAhead: durationEnv("NOTIFY_AHEAD", "15m"),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get API_URL env
func (c *Config) GetApiURL() string {
	return c.apiURL
}

// Get API_TIMEOUT env, default to 10s
func (c *Config) GetApiTimeout() time.Duration {
	return c.apiTimeout
}

// Get QUERY_STALE_TIME env, 0 keeps data fresh until invalidated
func (c *Config) GetQueryStaleTime() time.Duration {
	return c.queryStaleTime
}

// Get INVALIDATE_CASCADE env, default to prefix
func (c *Config) GetInvalidateCascade() query.CascadePolicy {
	return c.invalidateCascade
}

// Get DISCORD_GUILD_ID env
func (c *Config) GetDiscordGuildID() string {
	return c.discordGuildID
}

// Get DISCORD_APP_TOKEN env
func (c *Config) GetDiscordAppToken() string {
	return c.discordAppToken
}

// Get DISCORD_CLIENT_ID env
func (c *Config) GetDiscordClientId() string {
	return c.discordClientId
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get METRIC_COLLECTION_INTERVAL env, default to 10s
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}

// Get SQLITE_PATH env, default to ./sqlite.db
func (c *Config) GetSqlitePath() string {
	return c.sqlitePath
}

// Get IMAGE_BASE_URL env, default to API_URL
func (c *Config) GetImageBaseURL() string {
	return c.imageBaseURL
}

// Get NOTIFY_CHANNEL_ID env, empty disables reminders
func (c *Config) GetNotifyChannelID() string {
	return c.notifyChannelID
}

// Get NOTIFY_AHEAD env, default to 15m
func (c *Config) GetNotifyAhead() time.Duration {
	return c.notifyAhead
}
