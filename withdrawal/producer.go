package withdrawal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NewWithdrawalRequest builds a request for username from item specs of the form
// "<id>:<NAME>:<quantity>", where id may itself be "<base>:<data>" and NAME may be empty.
func NewWithdrawalRequest(username string, specs []string) (*WithdrawalRequest, error) {
	req := &WithdrawalRequest{Action: actionWithdrawal, Username: username}
	for _, spec := range specs {
		item, err := parseItemSpec(spec)
		if err != nil {
			return nil, err
		}
		req.Items = append(req.Items, item)
	}
	if err := withdrawalValidator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: field %s failed %q", ErrMalformedRequest, verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return req, nil
}

func parseItemSpec(spec string) (ItemRequest, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return ItemRequest{}, fmt.Errorf("%w: item %q is not id:NAME:quantity", ErrMalformedRequest, spec)
	}
	n := len(parts)
	qty, err := strconv.Atoi(parts[n-1])
	if err != nil || qty <= 0 {
		return ItemRequest{}, fmt.Errorf("%w: item %q has an invalid quantity", ErrMalformedRequest, spec)
	}
	item := ItemRequest{
		ID:       strings.Join(parts[:n-2], ":"),
		Name:     strings.ToUpper(parts[n-2]),
		Quantity: qty,
	}
	if _, _, err := ParseItemID(item.ID); err != nil {
		return ItemRequest{}, err
	}
	return item, nil
}

// WriteRequestFile writes the request into dir as withdrawal-<uuid>.json. The file is written
// under a temporary name first, so the engine never sees a partial request.
func WriteRequestFile(dir string, req *WithdrawalRequest) (string, error) {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".withdrawal-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path := filepath.Join(dir, "withdrawal-"+uuid.NewString()+".json")
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}
