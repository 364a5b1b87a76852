package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Pool registry error codes
const (
	CodePoolNotTracked     Code = "POOL_NOT_TRACKED"
	CodePoolUnavailable    Code = "POOL_UNAVAILABLE"
	CodePoolRefreshFailed  Code = "POOL_REFRESH_FAILED"
	CodeInvalidPoolAddress Code = "INVALID_POOL_ADDRESS"
	CodeSnapshotStale      Code = "SNAPSHOT_STALE"
	CodeTokenNotRegistered Code = "TOKEN_NOT_REGISTERED"
	CodeRPCError           Code = "RPC_ERROR"
	CodeRPCDecodeFailed    Code = "RPC_DECODE_FAILED"
)

// WebSocket errors
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
)

// Detection and profitability error codes
const (
	CodeStaleOpportunity          Code = "STALE_OPPORTUNITY"
	CodeOpportunityNotFound       Code = "OPPORTUNITY_NOT_FOUND"
	CodeInsufficientProfitability Code = "INSUFFICIENT_PROFITABILITY"
	CodeInsufficientLiquidity     Code = "INSUFFICIENT_LIQUIDITY"
	CodeInvalidTradeSize          Code = "INVALID_TRADE_SIZE"
	CodeRouteQuoteFailed          Code = "ROUTE_QUOTE_FAILED"
)

// Execution error codes
const (
	CodeStepTimeout         Code = "STEP_TIMEOUT"
	CodeStepExecutionFailed Code = "STEP_EXECUTION_FAILED"
	CodeRollbackFailed      Code = "ROLLBACK_FAILED"
	CodePlanNotFound        Code = "PLAN_NOT_FOUND"
	CodeInvalidTransition   Code = "INVALID_PLAN_TRANSITION"
	CodeSubmissionFailed    Code = "SUBMISSION_FAILED"
)

// Manager error codes
const (
	CodeManagerNotInitialized Code = "MANAGER_NOT_INITIALIZED"
	CodeRiskLimitExceeded     Code = "RISK_LIMIT_EXCEEDED"
)

// Circuit breaker errors
const (
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
