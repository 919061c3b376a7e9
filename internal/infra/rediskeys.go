package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "superai"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanSupervisorFeed: лента исходов прокси (диагнозы, запуски агентов) для SupervisorFeed.
	RedisChanSupervisorFeed = RedisNamespace + ":supervisor:feed"
)
