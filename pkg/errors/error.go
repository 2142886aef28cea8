package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"

	// ErrDuplicateOrderID represents an error when an order id is already present in the book.
	ErrDuplicateOrderID ErrorCode = "duplicate_order_id"
	// ErrOrderNotFound represents an error when a cancel targets an unknown or already terminal order.
	ErrOrderNotFound ErrorCode = "order_not_found"
	// ErrInvalidOrder represents an error when an order fails admission validation.
	ErrInvalidOrder ErrorCode = "invalid_order"
	// ErrEngineOverloaded represents backpressure from a saturated ingress queue.
	ErrEngineOverloaded ErrorCode = "engine_overloaded"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
)
