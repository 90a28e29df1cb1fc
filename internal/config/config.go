package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/lead-desk/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the lead desk client, the mock
// lead service and the CLI. Only this struct is used to read configuration;
// nothing else reads the environment directly.
type Config struct {
	AppEnv  string `env:"APP_ENV,default=dev"`
	AppName string `env:"APP_NAME,default=lead_desk"`

	// Remote lead service. Request URLs are APIURL + APIEndpoint + route.
	APIURL                 string        `env:"API_URL,default=http://localhost:3000"`
	APIEndpoint            string        `env:"API_ENDPOINT,default=/api"`
	APIRouteLeads          string        `env:"API_ROUTE_LEADS,default=/leads"`
	APIFuncGetLeads        string        `env:"API_FUNC_GET_LEADS,default=/leads"`
	APIFuncSwitchAttention string        `env:"API_FUNC_SWITCH_ATTENTION,default=/switch-needs-attention"`
	APITimeout             time.Duration `env:"API_TIMEOUT,default=10s"`
	APIMaxConns            int           `env:"API_MAX_CONNS,default=64"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=leaddesk:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=lead_desk"`
	MetricsAddr   string `env:"METRICS_ADDR"`
	MetricsURI    string `env:"METRICS_URI,default=/metrics"`

	MockAPIAddr string `env:"MOCK_API_ADDR,default=:3000"`
}

// BaseURL is the prefix every remote lead service route hangs off.
func (c *Config) BaseURL() string {
	return c.APIURL + c.APIEndpoint
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}
	if c.APITimeout <= 0 {
		return errors.New("API_TIMEOUT must be positive")
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set installs c as the loaded configuration.
func Set(c *Config) {
	config = c
}
