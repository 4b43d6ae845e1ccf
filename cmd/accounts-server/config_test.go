package main

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func validConfig() BaseConfig {
	return BaseConfig{
		Server:      Server{Address: ":8080", APIPrefix: "/api/1.0"},
		Persistence: Persistence{Driver: accounts.DriverSQLite, DSN: "file::memory:?cache=shared"},
		SMTP:        SMTP{Driver: "log"},
	}
}

func TestBaseConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *BaseConfig)
	}{
		{name: "missing address", mutate: func(c *BaseConfig) { c.Server.Address = "" }},
		{name: "unknown driver", mutate: func(c *BaseConfig) { c.Persistence.Driver = "mysql" }},
		{name: "smtp without host", mutate: func(c *BaseConfig) { c.SMTP.Driver = "smtp"; c.SMTP.From = "noreply@example.com" }},
		{name: "kafka without brokers", mutate: func(c *BaseConfig) { c.Kafka = Kafka{Enabled: true, Topic: "accounts.activity"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTimeoutDefaults(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 10*time.Second, cfg.shutdownTimeout())
	assert.Equal(t, 10*time.Second, cfg.SMTP.GetTimeout())

	cfg.Server.ShutdownTimeoutSeconds = 3
	cfg.SMTP.TimeoutSeconds = 4
	assert.Equal(t, 3*time.Second, cfg.shutdownTimeout())
	assert.Equal(t, 4*time.Second, cfg.SMTP.MailerConfig().Timeout)
}
