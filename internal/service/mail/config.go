package mail

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Host     string `mapstructure:"Host"`
	Port     int    `mapstructure:"Port"`
	User     string `mapstructure:"User"`
	Password string `mapstructure:"Password"`
	From     string `mapstructure:"From"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.BindEnv("Host", "SMTP_HOST")
	v.BindEnv("Port", "SMTP_PORT")
	v.BindEnv("User", "SMTP_USER")
	v.BindEnv("Password", "SMTP_PASSWORD")
	v.BindEnv("From", "SMTP_FROM")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("Host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}

	return &cfg, nil
}
