// Package config validates and loads the settings a ZTeraDB client needs
// to authenticate and open connections. There is no environment-variable
// parsing here; callers build or load a Config and pass it to the root
// package's Connect function.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zteradb/zteradb-go/zterr"
)

// Env is one of the deployment environments the server recognizes.
type Env string

const (
	EnvDev     Env = "dev"
	EnvStaging Env = "staging"
	EnvQA      Env = "qa"
	EnvProd    Env = "prod"
)

// ValidEnvs lists the environments accepted by Config.Validate, in the
// order used to build validation error messages.
func ValidEnvs() []string { return []string{"dev", "staging", "qa", "prod"} }

func isValidEnv(e string) bool {
	for _, v := range ValidEnvs() {
		if v == e {
			return true
		}
	}
	return false
}

// ResponseDataType names the wire payload encoding. Only "json" exists
// today; the type is a string rather than a single constant so future
// formats don't require an API break.
type ResponseDataType string

const ResponseDataTypeJSON ResponseDataType = "json"

// ValidResponseDataTypes lists the response encodings Config.Validate
// accepts.
func ValidResponseDataTypes() []string { return []string{"json"} }

func isValidResponseDataType(t string) bool {
	for _, v := range ValidResponseDataTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// PoolOptions bounds the connection pool. Min and Max both default to 0,
// meaning "create connections on demand" with no prewarm and no cap.
type PoolOptions struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// HasMin reports whether a minimum pool size was configured.
func (o PoolOptions) HasMin() bool { return o.Min > 0 }

// HasMax reports whether a maximum pool size was configured.
func (o PoolOptions) HasMax() bool { return o.Max > 0 }

func (o PoolOptions) validate() error {
	if o.Min < 0 {
		return zterr.New(zterr.KindConfig, "min connection must be a non-negative integer")
	}
	if o.Max < 0 {
		return zterr.New(zterr.KindConfig, "max connection must be a non-negative integer")
	}
	if o.HasMin() && o.HasMax() && o.Min > o.Max {
		return zterr.New(zterr.KindConfig, "min connection must be less than or equal to max connections in the connection_pool")
	}
	return nil
}

// Config carries everything a Session or Pool needs to authenticate and
// connect. It is immutable once handed to Connect/pool.New.
type Config struct {
	ClientKey        string            `yaml:"client_key"`
	AccessKey        string            `yaml:"access_key"`
	SecretKey        string            `yaml:"secret_key"`
	DatabaseID       string            `yaml:"database_id"`
	Env              Env               `yaml:"env"`
	ResponseDataType ResponseDataType  `yaml:"response_data_type"`
	ConnectTimeoutMS int               `yaml:"connect_timeout_ms"`
	QueryTimeoutMS   int               `yaml:"query_timeout_ms"`
	Pool             PoolOptions       `yaml:"connection_pool"`
}

// Validate checks client_key, access_key, secret_key, database_id,
// connect_timeout, env, response_data_type, and options in order, naming
// the offending field in the error.
func (c *Config) Validate() error {
	if err := c.validateClientKey(); err != nil {
		return err
	}
	if err := c.validateAccessKey(); err != nil {
		return err
	}
	if err := c.validateSecretKey(); err != nil {
		return err
	}
	if err := c.validateDatabaseID(); err != nil {
		return err
	}
	if err := c.validateConnectTimeout(); err != nil {
		return err
	}
	if err := c.validateEnv(); err != nil {
		return err
	}
	if err := c.validateResponseDataType(); err != nil {
		return err
	}
	if err := c.Pool.validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateClientKey() error {
	if c.ClientKey == "" {
		return zterr.New(zterr.KindConfig, "%q is not a valid client_key", c.ClientKey)
	}
	return nil
}

func (c *Config) validateAccessKey() error {
	if c.AccessKey == "" {
		return zterr.New(zterr.KindConfig, "%q is not a valid access_key", c.AccessKey)
	}
	return nil
}

func (c *Config) validateSecretKey() error {
	if c.SecretKey == "" {
		return zterr.New(zterr.KindConfig, "%q is not a valid secret_key", c.SecretKey)
	}
	return nil
}

func (c *Config) validateDatabaseID() error {
	if c.DatabaseID == "" {
		return zterr.New(zterr.KindConfig, "%q is not a valid database_id", c.DatabaseID)
	}
	return nil
}

func (c *Config) validateConnectTimeout() error {
	if c.ConnectTimeoutMS < 0 {
		return zterr.New(zterr.KindConfig, "%d is not a valid connect_timeout", c.ConnectTimeoutMS)
	}
	return nil
}

func (c *Config) validateEnv() error {
	if !isValidEnv(string(c.Env)) {
		return zterr.New(zterr.KindConfig, "%q is not a valid environment key. Valid options are: %s", c.Env, joinComma(ValidEnvs()))
	}
	return nil
}

func (c *Config) validateResponseDataType() error {
	rdt := c.ResponseDataType
	if rdt == "" {
		rdt = ResponseDataTypeJSON
	}
	if !isValidResponseDataType(string(rdt)) {
		return zterr.New(zterr.KindConfig, "invalid response data type: %q", c.ResponseDataType)
	}
	return nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// LoadFile reads a YAML config file and validates it.
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, zterr.Wrap(zterr.KindConfig, err, "failed to read config file %q", path)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, zterr.Wrap(zterr.KindConfig, err, "failed to parse config file %q", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
