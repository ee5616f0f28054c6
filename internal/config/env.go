package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/Sayam753/SendToS3/internal/apperr"
)

// LoadEnv загружает переменные окружения из .env файла.
// Уже заданные переменные окружения не перезаписываются, поэтому
// значения из crontab или systemd имеют приоритет над файлом.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		return apperr.Configuration("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadEnvOptional загружает переменные окружения из .env файла, если он существует.
// Если файл не существует - возвращает nil (без ошибки).
func LoadEnvOptional(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperr.Configuration("failed to stat env file %s: %w", path, err)
	}

	return LoadEnv(path)
}
