package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BoltDB                                  *BoltDB       `split_words:"true"`
	HttpServer                              *HttpServer   `split_words:"true"`
	DebugServer                             *DebugServer  `split_words:"true"`
	Sysctl                                  *Sysctl
	AutoConfigure                           bool          `split_words:"true" default:"true"`
	AutomaticStatsUpdateInterval            time.Duration `split_words:"true" default:"30s"`
	AutomaticStatsUpdateOnlyWithSubscribers bool          `split_words:"true" default:"true"`
	CorsAllowedOrigins                      []string      `split_words:"true" default:"*"`
	CorsAllowCredentials                    bool          `split_words:"true" default:"true"`
	CorsAllowPrivateNetwork                 bool          `split_words:"true" default:"false"`
	SubscriptionAllowedOrigins              []string      `split_words:"true" default:"*"`
}

func Load(prefix string) (*Config, error) {
	prefix = strings.ToUpper(prefix)
	prefix = strings.ReplaceAll(prefix, "-", "_")
	prefix = strings.ReplaceAll(prefix, " ", "_")
	var config Config
	if err := envconfig.Process(prefix, &config); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &config, nil
}
