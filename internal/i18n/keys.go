// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthForbidden          = "auth.forbidden"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLogoutSuccess      = "auth.logout_success"

	// Records
	KeyRecordNotFound     = "record.not_found"
	KeyCollectionNotFound = "collection.not_found"
	KeyProcedureNotFound  = "procedure.not_found"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Payments
	KeyPaymentSyncFailed    = "payment.sync_failed"
	KeyPaymentInvalidEvent  = "payment.invalid_event"
	KeyPaymentEmptyCart     = "payment.empty_cart"
	KeyPaymentOrderNotFound = "payment.order_not_found"

	// Uploads
	KeyUploadMissingFile = "upload.missing_file"
	KeyUploadTooLarge    = "upload.too_large"

	// Rate limiting
	KeyRateLimited = "rate_limited"

	KeyInternalError = "internal_error"
)
