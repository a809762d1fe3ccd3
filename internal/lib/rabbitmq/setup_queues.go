// Package rabbitmq подключается к брокеру и передаёт уведомления об истекающих подписках.
package rabbitmq

// Exchange direct-обменник уведомлений.
const Exchange = "notifications"

// RoutingKeyUpcoming ключ маршрутизации напоминаний о скором окончании подписки.
const RoutingKeyUpcoming = "upcoming"

// QueueUpcoming очередь, которую читает отправитель писем.
const QueueUpcoming = "notifications.upcoming"

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, объявляемые при настройке канала.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueUpcoming, RoutingKey: RoutingKeyUpcoming},
	}
}
