package config

import (
	"strings"
)

// maskSecret маскирует секрет, оставляя только первые 2 и последние 2 символа
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	// Если секрет слишком короткий, маскируем полностью
	if len(secret) < 8 {
		return "***"
	}

	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
