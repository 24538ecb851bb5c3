package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinSeedPasswordLength - минимальная длина пароля первого администратора
const MinSeedPasswordLength = 8

// HashSeedPassword проверяет пароль из конфигурации и возвращает его bcrypt хеш.
// Вход по паролю сервис не обслуживает, хеш нужен только для записи администратора.
func HashSeedPassword(password string) (string, error) {
	if len(password) < MinSeedPasswordLength {
		return "", fmt.Errorf("seed password must be at least %d characters long", MinSeedPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	return string(hash), nil
}
