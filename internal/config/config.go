package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the name of the JSON config file searched for in the config dir.
const ConfigFileName = "mirador_lotes.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. LOTES_STORAGE_TYPE.
const EnvPrefix = "LOTES"

// ProjectConfig identifies the project every parcel is stored under
type ProjectConfig struct {
	Slug        string  `json:"slug" mapstructure:"slug"`
	DisplayName string  `json:"displayName" mapstructure:"displayName"`
	Description string  `json:"description" mapstructure:"description"`
	Longitude   float64 `json:"longitude" mapstructure:"longitude"`
	Latitude    float64 `json:"latitude" mapstructure:"latitude"`
}

// SourcesConfig points at the three krpano documents a migration reads
type SourcesConfig struct {
	Spots string `json:"spots" mapstructure:"spots"`
	Data  string `json:"data" mapstructure:"data"`
	Tour  string `json:"tour" mapstructure:"tour"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// HTTPConfig holds API server settings
type HTTPConfig struct {
	Port            string        `json:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `json:"readTimeout" mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// InfluxConfig holds InfluxDB run-metrics settings
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./lotes-logs")

	viper.SetDefault("project.slug", "mirador-volcanes")
	viper.SetDefault("project.displayName", "Lote Los Volcanes")
	viper.SetDefault("project.description", "Proyecto de lotes con vista panorámica")
	viper.SetDefault("project.longitude", -72.3350)
	viper.SetDefault("project.latitude", -39.6440)

	viper.SetDefault("sources.spots", "public/krpano/skin/spots.xml")
	viper.SetDefault("sources.data", "public/krpano/skin/data.xml")
	viper.SetDefault("sources.tour", "public/krpano/tour.xml")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./lotes-data")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./lotes.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "lotes")

	viper.SetDefault("http.port", "8090")
	viper.SetDefault("http.readTimeout", "30s")
	viper.SetDefault("http.writeTimeout", "60s")
	viper.SetDefault("http.shutdownTimeout", "10s")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "lanube360")
	viper.SetDefault("influx.bucket", "lotes_migrations")
	viper.SetDefault("influx.backupPath", "./lotes-logs/influx_backup.log.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from the JSON file in configDir and sets default values.
// Defaults and environment overrides stay in effect when the file cannot be read.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// LoadFile reads configuration from an explicit file path.
func LoadFile(path string) error {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetProjectConfig returns the project identity.
func GetProjectConfig() ProjectConfig {
	return ProjectConfig{
		Slug:        viper.GetString("project.slug"),
		DisplayName: viper.GetString("project.displayName"),
		Description: viper.GetString("project.description"),
		Longitude:   viper.GetFloat64("project.longitude"),
		Latitude:    viper.GetFloat64("project.latitude"),
	}
}

// GetSourcesConfig returns the krpano document paths.
func GetSourcesConfig() SourcesConfig {
	return SourcesConfig{
		Spots: viper.GetString("sources.spots"),
		Data:  viper.GetString("sources.data"),
		Tour:  viper.GetString("sources.tour"),
	}
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetHTTPConfig returns the API server configuration.
func GetHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Port:            viper.GetString("http.port"),
		ReadTimeout:     viper.GetDuration("http.readTimeout"),
		WriteTimeout:    viper.GetDuration("http.writeTimeout"),
		ShutdownTimeout: viper.GetDuration("http.shutdownTimeout"),
	}
}

// GetInfluxConfig returns the InfluxDB configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Protocol:   viper.GetString("influx.protocol"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF log shipping configuration.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
