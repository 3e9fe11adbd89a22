package topics

const (
	// Apostas (placar e campeão)
	BetEvents = "bet_events"

	// DLQs
	BetEventsDLQ = "bet_events_dlq"
)
