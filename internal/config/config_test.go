package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "callcenter", SSLMode: "disable"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.DB.SSLMode = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validBase()
	c.DB.SSLMode = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_RecyclerDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Recycler.SweepInterval != time.Minute {
		t.Fatalf("expected 1m sweep interval default, got %s", c.Recycler.SweepInterval)
	}
	if c.Recycler.LockTTL != 15*time.Minute {
		t.Fatalf("expected 15m lock ttl default, got %s", c.Recycler.LockTTL)
	}
	if c.Recycler.ManualTimeout != 30*time.Second {
		t.Fatalf("expected 30s manual timeout default, got %s", c.Recycler.ManualTimeout)
	}
	if c.Recycler.SweepBatchSize != 500 {
		t.Fatalf("expected batch size 500 default, got %d", c.Recycler.SweepBatchSize)
	}
}

func TestValidate_SweepIntervalBounds(t *testing.T) {
	c := validBase()
	c.Recycler.SweepInterval = 10 * time.Minute
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for sweep interval above 5m")
	}

	c = validBase()
	c.Recycler.SweepInterval = 30 * time.Second
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for sweep interval below 1m")
	}
}

func TestValidate_ManualTimeoutMustFitInsideCycle(t *testing.T) {
	c := validBase()
	c.Recycler.SweepInterval = time.Minute
	c.Recycler.ManualTimeout = 2 * time.Minute
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for manual timeout exceeding sweep interval")
	}
}
