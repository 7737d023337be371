package config

import (
	"time"

	"github.com/spf13/viper"
)

type Database struct {
	Port              uint16
	Host              string
	User              string
	Password          string
	Name              string
	SslMode           string
	PingTimeout       time.Duration
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxIdleTime   time.Duration
	ConnMaxLifetime   time.Duration
	CaCertPath        string
	ClientKeyPath     string
	ClientCertPath    string
	MigrationUser     string
	MigrationPassword string
}

func setDatabaseDefaults() {
	viper.SetDefault("Database.Port", "5432")
	viper.SetDefault("Database.Host", "127.0.0.1")
	viper.SetDefault("Database.User", "postgres")
	viper.SetDefault("Database.Password", "postgres")
	viper.SetDefault("Database.Name", "lendguard")
	viper.SetDefault("Database.SslMode", "disable")
	viper.SetDefault("Database.PingTimeout", "15s")
	viper.SetDefault("Database.MaxOpenConns", 20)
	viper.SetDefault("Database.MaxIdleConns", 10)
	viper.SetDefault("Database.ConnMaxIdleTime", "30m")
	viper.SetDefault("Database.ConnMaxLifetime", "1h")
	viper.SetDefault("Database.MigrationUser", "postgres")
	viper.SetDefault("Database.MigrationPassword", "postgres")
}

func setReadOnlyDatabaseDefaults() {
	viper.SetDefault("ReadOnlyDatabase.Port", "5432")
	viper.SetDefault("ReadOnlyDatabase.Host", "127.0.0.1")
	viper.SetDefault("ReadOnlyDatabase.User", "postgres")
	viper.SetDefault("ReadOnlyDatabase.Password", "postgres")
	viper.SetDefault("ReadOnlyDatabase.Name", "lendguard")
	viper.SetDefault("ReadOnlyDatabase.SslMode", "disable")
	viper.SetDefault("ReadOnlyDatabase.PingTimeout", "15s")
	viper.SetDefault("ReadOnlyDatabase.MaxOpenConns", 10)
	viper.SetDefault("ReadOnlyDatabase.MaxIdleConns", 5)
	viper.SetDefault("ReadOnlyDatabase.ConnMaxIdleTime", "30m")
	viper.SetDefault("ReadOnlyDatabase.ConnMaxLifetime", "1h")
}
