package domain

// Queued transaction lifecycle.
const (
	TxStatusDraft      = "draft"
	TxStatusPending    = "pending"
	TxStatusProcessing = "processing"
	TxStatusCompleted  = "completed"
	TxStatusFailed     = "failed"
)

// Idempotency record lifecycle.
const (
	IdemStatusPending   = "pending"
	IdemStatusCompleted = "completed"
	IdemStatusFailed    = "failed"
)

// Charge outcomes reported by providers.
const (
	ChargeSucceeded      = "succeeded"
	ChargeFailed         = "failed"
	ChargePending        = "pending"
	ChargeRequiresAction = "requires_action"
)

// Decline and failure reason codes.
const (
	ReasonCardDeclined      = "card_declined"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonExpiredCard       = "expired_card"
	ReasonInvalidCVV        = "invalid_cvv"
	ReasonSuspectedFraud    = "suspected_fraud"
	ReasonTokenAlreadyUsed  = "token_already_used"
	ReasonTokenExpired      = "token_expired"
	ReasonInvalidToken      = "invalid_token"
	ReasonProcessingError   = "processing_error"
	ReasonRefundFailed      = "refund_failed"
)

// HighRiskReasons short-circuit the lockout threshold: a single attempt
// carrying one of these locks the key immediately.
var HighRiskReasons = map[string]struct{}{
	ReasonSuspectedFraud: {},
	"stolen_card":        {},
	"lost_card":          {},
	"pickup_card":        {},
	"restricted_card":    {},
	"security_violation": {},
}

// Operator roles for the till API.
const (
	RoleOperator = "OPERATOR"
	RoleAdmin    = "ADMIN"
)
