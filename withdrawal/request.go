package withdrawal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const actionWithdrawal = "withdrawal"

var itemSymbolPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// WithdrawalRequest is the content of one inbox file.
type WithdrawalRequest struct {
	Action   string        `json:"action" validate:"required,withdrawal_action"`
	Username string        `json:"username" validate:"required,notblank"`
	Items    []ItemRequest `json:"items" validate:"min=1,dive"`
}

// ItemRequest is one entry of a withdrawal request.
type ItemRequest struct {
	// ID is "<baseId>" or "<baseId>:<dataValue>".
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name,omitempty" validate:"omitempty,item_symbol"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// ParseItemID splits an item id into its numeric base id and data value. The data value
// defaults to 0.
func ParseItemID(id string) (int, int16, error) {
	base, err := parseBaseID(id)
	if err != nil {
		return 0, 0, err
	}
	parts := strings.Split(id, ":")
	if len(parts) < 2 || parts[1] == "" {
		return base, 0, nil
	}
	data, err := strconv.ParseInt(parts[1], 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: data value in %q", ErrInvalidItemID, id)
	}
	return base, int16(data), nil
}

func parseBaseID(id string) (int, error) {
	parts := strings.Split(id, ":")
	base, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: base id in %q", ErrInvalidItemID, id)
	}
	return int(base), nil
}

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("withdrawal_action", func(fl validator.FieldLevel) bool {
		return strings.EqualFold(fl.Field().String(), actionWithdrawal)
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("item_symbol", func(fl validator.FieldLevel) bool {
		return itemSymbolPattern.MatchString(fl.Field().String())
	})
	return v
}
