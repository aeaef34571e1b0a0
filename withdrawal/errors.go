package withdrawal

import (
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"
)

var (
	ErrMalformedRequest = errors.New("malformed withdrawal request")
	ErrUnknownItem      = errors.New("unknown item")
	ErrCreditLeftover   = errors.New("inventory rejected items after fit check")
	ErrInvalidItemID    = errors.New("invalid item id")
)

var (
	ErrEngineUnavailable = runtime.NewError("withdrawal engine not enabled", UNAVAILABLE_ERROR_CODE)
	ErrPayloadDecode     = runtime.NewError("cannot decode json", INTERNAL_ERROR_CODE)
	ErrPayloadEncode     = runtime.NewError("cannot encode json", INTERNAL_ERROR_CODE)
	ErrPayloadInvalid    = runtime.NewError("payload is invalid", INVALID_ARGUMENT_ERROR_CODE)
	ErrUserSession       = runtime.NewError("operator rpc cannot be called from a user session", PERMISSION_DENIED_ERROR_CODE)
	ErrFileNotFound      = runtime.NewError("request file not found", NOT_FOUND_ERROR_CODE)
	ErrFileQueued        = runtime.NewError("request file already in inbox", ALREADY_EXISTS_ERROR_CODE)
	ErrInternal          = runtime.NewError("internal error occurred", INTERNAL_ERROR_CODE)
)
