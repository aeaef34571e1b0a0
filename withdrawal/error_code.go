package withdrawal

const (
	// INVALID_ARGUMENT_ERROR_CODE represents an error for invalid input arguments.
	INVALID_ARGUMENT_ERROR_CODE = 3
	// NOT_FOUND_ERROR_CODE represents an error for a missing request file.
	NOT_FOUND_ERROR_CODE = 5
	// ALREADY_EXISTS_ERROR_CODE represents an error for a request file that is already queued.
	ALREADY_EXISTS_ERROR_CODE = 6
	// PERMISSION_DENIED_ERROR_CODE represents an error for calls made from a user session.
	PERMISSION_DENIED_ERROR_CODE = 7
	// INTERNAL_ERROR_CODE represents an internal server error.
	INTERNAL_ERROR_CODE = 13
	// UNAVAILABLE_ERROR_CODE represents an engine that is not enabled.
	UNAVAILABLE_ERROR_CODE = 14
)
