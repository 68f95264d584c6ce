package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/flagx"
	"github.com/dmitrijs2005/cloudservice/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "1m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	AuthTokenHeader       string         `json:"auth_token_header"`
	AuthTokenPrefix       string         `json:"auth_token_prefix"`
	PublicPaths           []string       `json:"public_paths"`
	BlobBackend           string         `json:"blob_backend"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	LocalRootPath         string         `json:"local_root_path"`
	MaxUploadSize         int64          `json:"max_upload_size"`
	HTTPReadTimeout       timex.Duration `json:"http_read_timeout"`
	HTTPWriteTimeout      timex.Duration `json:"http_write_timeout"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
	HealthCheckInterval   timex.Duration `json:"health_check_interval"`
	LogLevel              string         `json:"log_level"`
	LogFormat             string         `json:"log_format"`
	LogBackend            string         `json:"log_backend"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// CONFIG environment variable) onto config. Keys missing from the file keep
// their current values. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AuthTokenHeader, c.AuthTokenHeader)
	setString(&config.AuthTokenPrefix, c.AuthTokenPrefix)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LocalRootPath, c.LocalRootPath)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogBackend, c.LogBackend)

	if c.PublicPaths != nil {
		config.PublicPaths = c.PublicPaths
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}

	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)
	setDuration(&config.HTTPReadTimeout, c.HTTPReadTimeout)
	setDuration(&config.HTTPWriteTimeout, c.HTTPWriteTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setDuration(&config.HealthCheckInterval, c.HealthCheckInterval)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
