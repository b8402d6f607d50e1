package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mpetrenko/notekeeper/internal/flagx"
)

// JsonConfig is the intermediate DTO used only for reading JSON
// configuration files; durations are given as integer minutes. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                string `json:"endpoint_addr"`
	DatabaseDSN                 string `json:"database_dsn"`
	SecretKey                   string `json:"secret_key"`
	AccessTokenValidityDuration int    `json:"access_token_validity_minutes"`
	S3RootUser                  string `json:"s3_root_user"`
	S3RootPassword              string `json:"s3_root_password"`
	S3Bucket                    string `json:"s3_bucket"`
	S3Region                    string `json:"s3_region"`
	S3BaseEndpoint              string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file given via the -c
// or -config flags. If no file is given, nothing is loaded. An unreadable or
// invalid file panics: starting with half-applied configuration is worse
// than not starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration > 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration) * time.Minute
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
