package notify

// Event types emitted by the gateway. The operator's config selects which
// of these reach the configured channels.
const (
	EventTxSubmitted    = "tx_submitted"
	EventTxConfirmed    = "tx_confirmed"
	EventTxFailed       = "tx_failed"
	EventMarketCreated  = "market_created"
	EventMarketResolved = "market_resolved"
	EventMarketDisputed = "market_disputed"
	EventSyncError      = "sync_error"
)
