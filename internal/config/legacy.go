package config

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// LegacyConfig — параметры подключения к исходной MySQL-базе
// настольного приложения (только для brigadas-import).
type LegacyConfig struct {
	// DSN в формате go-sql-driver/mysql (user:pass@tcp(host:3306)/db)
	DSN string
	// Размер пакета при переносе строк
	BatchSize int
}

// LoadLegacy загружает параметры исходной базы из BR_LEGACY_MYSQL_DSN.
// DSN валидируется разбором через mysql.ParseDSN; parseTime включается принудительно.
func LoadLegacy() (*LegacyConfig, error) {
	dsn, err := getEnvRequired("BR_LEGACY_MYSQL_DSN")
	if err != nil {
		return nil, err
	}

	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("BR_LEGACY_MYSQL_DSN: %w", err)
	}
	parsed.ParseTime = true

	batch, err := getEnvInt("BR_LEGACY_BATCH_SIZE", 500)
	if err != nil {
		return nil, fmt.Errorf("BR_LEGACY_BATCH_SIZE: %w", err)
	}
	if batch < 1 || batch > 10000 {
		return nil, fmt.Errorf("BR_LEGACY_BATCH_SIZE: значение %d вне допустимого диапазона 1-10000", batch)
	}

	return &LegacyConfig{DSN: parsed.FormatDSN(), BatchSize: batch}, nil
}
