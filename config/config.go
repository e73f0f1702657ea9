// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Neo4j         DatabaseConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Catalogue     CatalogueConfiguration
	Auth          AuthConfiguration
	Cache         CacheConfiguration
	Quota         QuotaConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
	ID   string
}

// DatabaseConfiguration stores data for database connection
type DatabaseConfiguration struct {
	URI      string
	Username string
	Password string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr     string
	Password string
	DB       int
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// CatalogueConfiguration stores the catalogue service client settings
type CatalogueConfiguration struct {
	URL     string
	Timeout string
}

// AuthConfiguration stores the identity provider settings
type AuthConfiguration struct {
	JwksURL  string
	Audience string
}

// CacheConfiguration stores the metadata cache settings
type CacheConfiguration struct {
	RefreshInterval string
	TTL             string
	Capacity        int
}

// QuotaConfiguration stores the usage limiting settings
type QuotaConfiguration struct {
	Enabled bool
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.id", "rs.example.org")
	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("catalogue.url", "http://localhost:8081/cat/v1")
	viper.SetDefault("catalogue.timeout", "10s")
	viper.SetDefault("auth.jwksURL", "http://localhost:8443/auth/v1/cert")
	viper.SetDefault("auth.audience", "rs.example.org")
	viper.SetDefault("cache.refreshInterval", "1h")
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.capacity", 10000)
	viper.SetDefault("quota.enabled", true)
	viper.SetDefault("log.dir", "logging")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
