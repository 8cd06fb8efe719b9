package mongostore

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/config"
)

// Config represents the MongoDB connection and collection settings.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL,required"`                             // ConnectionURL is the URL of the deployment.
	Database        string        `env:"MONGODB_DATABASE" envDefault:"app"`                // Database holds the session collection.
	Collection      string        `env:"MONGODB_SESSION_COLLECTION" envDefault:"sessions"` // Collection stores one document per session.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`         // ConnectTimeout is the timeout for connecting to the deployment.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`           // MaxPoolSize is the maximum number of pooled connections.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`             // MinPoolSize is the minimum number of pooled connections.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`     // MaxConnIdleTime is how long a pooled connection may stay idle.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`           // RetryWrites enables retryable writes.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`            // RetryReads enables retryable reads.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`            // RetryAttempts is the number of connection attempts.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`           // RetryInterval is the pause between attempts.
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
