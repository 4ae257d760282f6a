package config

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string   `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Database    Database `envPrefix:"DATABASE_"`

	MercadoPago MercadoPago `envPrefix:"MP_"`
	CallMeBot   CallMeBot   `envPrefix:"CALLMEBOT_"`
	Redis       Redis       `envPrefix:"REDIS_"`
	Kafka       Kafka       `envPrefix:"KAFKA_"`
	Report      Report      `envPrefix:"REPORT_"`
	Admin       Admin       `envPrefix:"ADMIN_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql, postgres
	URL    string `env:"URL" envDefault:"storefront.db"`
}

type MercadoPago struct {
	BaseApiURL      string        `env:"BASE_API_URL" envDefault:"https://api.mercadopago.com"`
	AccessToken     string        `env:"ACCESS_TOKEN"`
	NotificationURL string        `env:"NOTIFICATION_URL"`
	PayerEmail      string        `env:"PAYER_EMAIL" envDefault:"cliente@exemplo.com"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type CallMeBot struct {
	BaseApiURL string  `env:"BASE_API_URL" envDefault:"https://api.callmebot.com"`
	Phone      string  `env:"PHONE"`
	ApiKey     string  `env:"API_KEY"`
	RatePerSec float64 `env:"RATE_PER_SEC" envDefault:"0.5"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Channel  string `env:"CHANNEL" envDefault:"orders_updates"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"order-events"`
}

type Report struct {
	Schedule    string        `env:"SCHEDULE" envDefault:"55 23 * * *"`
	TimeZone    string        `env:"TIME_ZONE" envDefault:"America/Sao_Paulo"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	BaseBackoff time.Duration `env:"BASE_BACKOFF" envDefault:"1s"`
}

type Admin struct {
	Username     string        `env:"USERNAME" envDefault:"admin"`
	PasswordHash string        `env:"PASSWORD_HASH"` // bcrypt
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// NewLogger builds the process logger. Format is "json" or "text".
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
