package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodePoolNotTracked:     "Pool is not tracked by the registry",
	CodePoolUnavailable:    "Pool snapshot could not be refreshed",
	CodePoolRefreshFailed:  "Pool state refresh failed",
	CodeInvalidPoolAddress: "Invalid pool address",
	CodeSnapshotStale:      "Pool snapshot is stale",
	CodeTokenNotRegistered: "Token is not registered",
	CodeRPCError:           "RPC call failed",
	CodeRPCDecodeFailed:    "Failed to decode RPC response",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeStaleOpportunity:          "Opportunity snapshot is older than the freshness horizon",
	CodeOpportunityNotFound:       "Opportunity not found",
	CodeInsufficientProfitability: "Net profit or risk fails configured thresholds",
	CodeInsufficientLiquidity:     "Insufficient liquidity for trade size",
	CodeInvalidTradeSize:          "Invalid trade size",
	CodeRouteQuoteFailed:          "Route quote computation failed",

	CodeStepTimeout:         "Execution step timed out",
	CodeStepExecutionFailed: "Execution step failed",
	CodeRollbackFailed:      "Contingency rollback failed",
	CodePlanNotFound:        "Execution plan not found",
	CodeInvalidTransition:   "Invalid execution plan state transition",
	CodeSubmissionFailed:    "Transaction submission failed",

	CodeManagerNotInitialized: "Arbitrage manager has not been started",
	CodeRiskLimitExceeded:     "Global risk budget exceeded",

	CodeCircuitOpen: "Circuit breaker is open",
}
