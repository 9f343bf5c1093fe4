package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Ключи маршрутизации событий учётных записей.
const (
	RoutingRegistered     = "account.registered"
	RoutingLoggedIn       = "account.logged_in"
	RoutingProfileUpdated = "account.profile_updated"
	RoutingLoggedOut      = "account.logged_out"
)

// GetAccountQueues возвращает очереди, которые сервис объявляет при старте.
func GetAccountQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "accounts.welcome", RoutingKey: RoutingRegistered},
		{QueueName: "accounts.audit", RoutingKey: RoutingLoggedIn},
		{QueueName: "accounts.audit", RoutingKey: RoutingProfileUpdated},
		{QueueName: "accounts.audit", RoutingKey: RoutingLoggedOut},
	}
}
