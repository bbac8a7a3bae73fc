package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"txlink"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Data struct {
		// Source selects where records come from: "csv" or "postgres".
		Source           string `envconfig:"DATA_SOURCE" default:"csv"`
		TransactionsPath string `envconfig:"TRANSACTIONS_CSV" default:"data/transactions.csv"`
		UsersPath        string `envconfig:"USERS_CSV" default:"data/users.csv"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"txlink"`
	}

	Embedding struct {
		// Provider selects the embedder: "local" or "ollama".
		Provider   string `envconfig:"EMBEDDING_PROVIDER" default:"local"`
		Endpoint   string `envconfig:"EMBEDDING_ENDPOINT" default:"http://localhost:11434"`
		Model      string `envconfig:"EMBEDDING_MODEL" default:"all-minilm"`
		Dimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"384"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
