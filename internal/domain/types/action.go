package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"

	ActionJourneyStart        = "journey_start"
	ActionJourneyGuardedStart = "journey_guarded_start"
	ActionJourneyAppendSample = "journey_append_sample"
	ActionJourneyFinalize     = "journey_finalize"
	ActionJourneyAutoFinalize = "journey_auto_finalize"
	ActionJourneyCurrent      = "journey_current"
	ActionJourneyHistory      = "journey_history"

	ActionPushReminder = "push_reminder"
	ActionFeedRelay    = "feed_relay"
)
