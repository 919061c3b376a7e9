package infra

import "os"

// SecretProvider отдает секреты (ключи апстримов) по имени.
// Обработчики читают секрет на каждом вызове, а не при старте.
type SecretProvider interface {
	Secret(name string) (string, bool)
}

// EnvSecrets читает секреты из окружения процесса. Пустое значение считается отсутствующим.
type EnvSecrets struct{}

func (EnvSecrets) Secret(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// StaticSecrets: фиксированный набор секретов (тесты, CLI).
type StaticSecrets map[string]string

func (s StaticSecrets) Secret(name string) (string, bool) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
