package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthAccountBlocked     = "AUTH_ACCOUNT_BLOCKED"
	AuthWrongPassword      = "AUTH_WRONG_PASSWORD"

	// Authorization
	AuthzForbidden      = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound   = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly      = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly      = "AUTHZ_OWNER_ONLY"
	AuthzAdminProtected = "AUTHZ_ADMIN_PROTECTED"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"
	ValidationInvalidSizes = "VALIDATION_INVALID_SIZES"
	ValidationInvalidRole  = "VALIDATION_INVALID_ROLE"
	ValidationInvalidSort  = "VALIDATION_INVALID_SORT"

	// Resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	ProductNotFound = "PRODUCT_NOT_FOUND"
	UserNotFound    = "USER_NOT_FOUND"

	CartItemNotFound      = "CART_ITEM_NOT_FOUND"
	CartInsufficientStock = "CART_INSUFFICIENT_STOCK"

	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"

	TicketNotFound          = "TICKET_NOT_FOUND"
	TicketInvalidStatus     = "TICKET_INVALID_STATUS"
	TicketInvalidTransition = "TICKET_INVALID_TRANSITION"

	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
