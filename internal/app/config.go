package app

import (
	"strings"
	"time"

	"github.com/yungbote/rentalchat-backend/internal/data/db"
	"github.com/yungbote/rentalchat-backend/internal/platform/envutil"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/realtime/bus"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

type Config struct {
	Port        string
	LogMode     string
	Environment string
	AppURL      string
	CORSOrigins []string

	DB    db.Config
	Redis bus.RedisConfig

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	ActivityWindow time.Duration
	AutoReplyDelay time.Duration
	PresenceGate   bool
	PublishTimeout time.Duration
	EmailTimeout   time.Duration

	PostRatePerSecond float64
	PostRateBurst     int

	SeedFile string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("APP_ENV", "development"),
		AppURL:      strings.TrimRight(envutil.String("APP_URL", "http://localhost:3000"), "/"),
		CORSOrigins: splitList(envutil.String("CORS_ORIGINS", "")),

		DB:    db.ConfigFromEnv(),
		Redis: bus.RedisConfigFromEnv(),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", services.DefaultAccessTTL),

		ActivityWindow: envutil.Seconds("ACTIVITY_WINDOW_SECONDS", services.DefaultActivityWindow),
		AutoReplyDelay: envutil.Millis("AUTO_REPLY_DELAY_MS", services.DefaultAutoReplyDelay),
		PresenceGate:   envutil.Bool("AUTO_REPLY_PRESENCE_GATE", false),
		PublishTimeout: envutil.Millis("PUBLISH_TIMEOUT_MS", 2*time.Second),
		EmailTimeout:   envutil.Seconds("OWNER_EMAIL_TIMEOUT_SECONDS", 10*time.Second),

		PostRatePerSecond: envutil.Float("POST_RATE_PER_SECOND", 2),
		PostRateBurst:     envutil.Int("POST_RATE_BURST", 10),

		SeedFile: envutil.String("CHAT_SEED_FILE", ""),
	}
	if cfg.JWTSecretKey == "" && log != nil {
		log.Warn("JWT_SECRET_KEY is empty; every request will be rejected")
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
