package configuration

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"pego/infrastructure/logger"
)

type Config struct {
	App        App        `json:"app"`
	Database   Database   `json:"database"`
	Redis      Redis      `json:"redis"`
	Payment    Payment    `json:"payment"`
	Pubsub     Pubsub     `json:"pubsub"`
	ServiceBus ServiceBus `json:"serviceBus"`
	OAuth      OAuth      `json:"oauth"`
	Upload     Upload     `json:"upload"`
	Round      Round      `json:"round"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
	BaseURL   string `json:"baseURL"`
	UploadDir string `json:"uploadDir"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Redis struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Payment holds provider endpoints for the two externally-settled methods.
type Payment struct {
	Card PaymentProvider `json:"card"`
	QR   PaymentProvider `json:"qr"`
}

type PaymentProvider struct {
	Host       string `json:"host"`
	APIKey     string `json:"apiKey"`
	ReturnURL  string `json:"returnURL"`
	TTLMinutes int    `json:"ttlMinutes"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type OAuth struct {
	Google OAuthClient `json:"google"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

type Upload struct {
	MaxSizeBytes    int64   `json:"maxSizeBytes"`
	MaxDurationSecs float64 `json:"maxDurationSecs"`
}

type Round struct {
	DefaultEntryFee    int64 `json:"defaultEntryFee"`
	DefaultWinnerCount int   `json:"defaultWinnerCount"`
}

var C Config

func init() {
	LoadConfig()
	applyDefaults(&C)
	applyEnvOverrides(&C)
}

func LoadConfig() {
	name := getConfigName()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Unable to decode config into struct")
	}
}

func getConfigName() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "config"
	}
	return "config." + env
}

func applyDefaults(c *Config) {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.UploadDir == "" {
		c.App.UploadDir = "uploads/videos"
	}
	if c.Upload.MaxSizeBytes == 0 {
		c.Upload.MaxSizeBytes = 100 * 1024 * 1024
	}
	if c.Upload.MaxDurationSecs == 0 {
		c.Upload.MaxDurationSecs = 180
	}
	if c.Round.DefaultEntryFee == 0 {
		c.Round.DefaultEntryFee = 30
	}
	if c.Round.DefaultWinnerCount == 0 {
		c.Round.DefaultWinnerCount = 1000
	}
	if c.Payment.Card.TTLMinutes == 0 {
		c.Payment.Card.TTLMinutes = 30
	}
	if c.Payment.QR.TTLMinutes == 0 {
		c.Payment.QR.TTLMinutes = 10
	}
	if c.Pubsub.Topic == "" {
		c.Pubsub.Topic = "pego-events"
	}
	if c.ServiceBus.Queue == "" {
		c.ServiceBus.Queue = "payment-receipts"
	}
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.App.Port = port
		}
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.App.SecretKey = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.App.BaseURL = v
	}
}

// CardTTL returns the card session lifetime as a duration.
func (p Payment) CardTTL() time.Duration { return time.Duration(p.Card.TTLMinutes) * time.Minute }

// QRTTL returns the QR session lifetime as a duration.
func (p Payment) QRTTL() time.Duration { return time.Duration(p.QR.TTLMinutes) * time.Minute }
