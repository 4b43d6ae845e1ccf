package main

import (
	"time"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
)

type BaseConfig struct {
	Name        string      `koanf:"name" json:"name"`
	Server      Server      `koanf:"server" json:"server"`
	Logging     Logging     `koanf:"logging" json:"logging"`
	Persistence Persistence `koanf:"persistence" json:"persistence"`
	SMTP        SMTP        `koanf:"smtp" json:"smtp"`
	Locale      Locale      `koanf:"locale" json:"locale"`
	Metrics     Metrics     `koanf:"metrics" json:"metrics"`
	Kafka       Kafka       `koanf:"kafka" json:"kafka"`
	Security    Security    `koanf:"security" json:"security"`
}

type Server struct {
	Address                string `koanf:"address" json:"address"`
	APIPrefix              string `koanf:"api_prefix" json:"api_prefix"`
	Debug                  bool   `koanf:"debug" json:"debug"`
	ShutdownTimeoutSeconds int    `koanf:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds"`
}

type Logging struct {
	// Format is pretty (glog) or json (zap)
	Format string `koanf:"format" json:"format"`
	Level  string `koanf:"level" json:"level"`
}

type Persistence struct {
	Driver  string `koanf:"driver" json:"driver"`
	DSN     string `koanf:"dsn" json:"dsn"`
	Migrate bool   `koanf:"migrate" json:"migrate"`
}

func (p Persistence) GetDriver() string { return p.Driver }
func (p Persistence) GetDSN() string    { return p.DSN }

type SMTP struct {
	// Driver is smtp or log
	Driver         string `koanf:"driver" json:"driver"`
	Host           string `koanf:"host" json:"host"`
	Port           int    `koanf:"port" json:"port"`
	Username       string `koanf:"username" json:"username"`
	Password       string `koanf:"password" json:"-"`
	From           string `koanf:"from" json:"from"`
	TLS            string `koanf:"tls" json:"tls"`
	TimeoutSeconds int    `koanf:"timeout_seconds" json:"timeout_seconds"`
	ActivationURL  string `koanf:"activation_url" json:"activation_url"`
}

func (s SMTP) GetTimeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (s SMTP) MailerConfig() accounts.SMTPConfig {
	return accounts.SMTPConfig{
		Host:     s.Host,
		Port:     s.Port,
		Username: s.Username,
		Password: s.Password,
		From:     s.From,
		TLS:      s.TLS,
		Timeout:  s.GetTimeout(),
	}
}

type Locale struct {
	Default string `koanf:"default" json:"default"`
}

type Metrics struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Path    string `koanf:"path" json:"path"`
}

type Kafka struct {
	Enabled bool     `koanf:"enabled" json:"enabled"`
	Brokers []string `koanf:"brokers" json:"brokers"`
	Topic   string   `koanf:"topic" json:"topic"`
	// RawEmails publishes unmasked addresses on the audit topic
	RawEmails bool `koanf:"raw_emails" json:"raw_emails"`
}

type Security struct {
	BcryptCost int `koanf:"bcrypt_cost" json:"bcrypt_cost"`
}

func (a BaseConfig) Validate() error {
	if a.Server.Address == "" {
		return goerrors.New("server.address is required", goerrors.CategoryValidation)
	}

	switch a.Persistence.Driver {
	case accounts.DriverSQLite, accounts.DriverPostgres:
	default:
		return goerrors.New("persistence.driver must be sqlite or postgres", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"driver": a.Persistence.Driver})
	}

	if a.SMTP.Driver == "smtp" && (a.SMTP.Host == "" || a.SMTP.From == "") {
		return goerrors.New("smtp.host and smtp.from are required for the smtp driver", goerrors.CategoryValidation)
	}

	if a.Kafka.Enabled && (len(a.Kafka.Brokers) == 0 || a.Kafka.Topic == "") {
		return goerrors.New("kafka.brokers and kafka.topic are required when kafka is enabled", goerrors.CategoryValidation)
	}

	return nil
}

func (a BaseConfig) shutdownTimeout() time.Duration {
	if a.Server.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.Server.ShutdownTimeoutSeconds) * time.Second
}
