package withdrawal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The envelope only pins the fields the engine reads. Anything else is allowed.
const requestSchemaURL = "https://vaultdrop.local/schemas/withdrawal_request.json"

const requestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["action", "username"],
  "properties": {
    "action": {"type": "string"},
    "username": {"type": "string"},
    "items": {"type": "array"}
  }
}`

var (
	requestSchemaOnce     sync.Once
	requestSchemaCompiled *jsonschema.Schema

	requestValidatorOnce sync.Once
	requestValidator     *validator.Validate
)

func withdrawalSchema() *jsonschema.Schema {
	requestSchemaOnce.Do(func() {
		requestSchemaCompiled = jsonschema.MustCompileString(requestSchemaURL, requestSchema)
	})
	return requestSchemaCompiled
}

func withdrawalValidator() *validator.Validate {
	requestValidatorOnce.Do(func() {
		requestValidator = newRequestValidator()
	})
	return requestValidator
}

// ReadRequestFile reads and parses a request file.
func ReadRequestFile(path string) (*WithdrawalRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read failed: %v", ErrMalformedRequest, err)
	}
	return ParseRequest(data)
}

// ParseRequest decodes a withdrawal request. Unknown fields are ignored and items that are not
// well formed are dropped; the request itself fails when the action is not a withdrawal, the
// username is blank or no item survives.
func ParseRequest(data []byte) (*WithdrawalRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrMalformedRequest, err)
	}
	if err := withdrawalSchema().Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	fields := doc.(map[string]interface{})
	req := &WithdrawalRequest{
		Action:   fields["action"].(string),
		Username: fields["username"].(string),
	}
	if rawItems, ok := fields["items"].([]interface{}); ok {
		for _, raw := range rawItems {
			if item, ok := decodeItem(raw); ok {
				req.Items = append(req.Items, item)
			}
		}
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

func decodeItem(raw interface{}) (ItemRequest, bool) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return ItemRequest{}, false
	}

	id, ok := obj["id"].(string)
	if !ok || id == "" {
		return ItemRequest{}, false
	}
	if _, _, err := ParseItemID(id); err != nil {
		return ItemRequest{}, false
	}

	var name string
	switch v := obj["name"].(type) {
	case nil:
	case string:
		if v != "" && !itemSymbolPattern.MatchString(v) {
			return ItemRequest{}, false
		}
		name = v
	default:
		return ItemRequest{}, false
	}

	num, ok := obj["quantity"].(json.Number)
	if !ok {
		return ItemRequest{}, false
	}
	qty, err := num.Int64()
	if err != nil || qty <= 0 || qty > math.MaxInt32 {
		return ItemRequest{}, false
	}

	return ItemRequest{ID: id, Name: name, Quantity: int(qty)}, true
}
