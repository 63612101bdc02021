package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

// maxIDExponent bounds the exponent of a numeric identifier. Identifiers are
// at most 255 characters, so anything larger cannot be stored anyway.
const maxIDExponent = 255

// normalizeID converts a JSON identifier to its stored string form. Strings
// are trimmed. Numbers must denote an integer and are written as plain
// decimal digits, so 100, 100.0 and 1e2 are the same id. null or an absent
// value reports present=false. Any other JSON type is invalid input.
func normalizeID(field string, raw json.RawMessage) (id string, present bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, invalidID(field)
		}
		return strings.TrimSpace(s), true, nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false, invalidID(field)
		}
		id, ok := integerText(n.String())
		if !ok {
			return "", false, apperrors.InvalidInput(fmt.Sprintf("%s must be an integer when sent as a number", field))
		}
		return id, true, nil
	default:
		return "", false, invalidID(field)
	}
}

// pathID returns the trimmed path parameter. chi matches on the escaped
// path when the request has one, so the parameter is unescaped in that case.
func pathID(r *http.Request, param, field string) (string, error) {
	s := chi.URLParam(r, param)
	if r.URL.RawPath != "" {
		var err error
		if s, err = url.PathUnescape(s); err != nil {
			return "", apperrors.InvalidInput(fmt.Sprintf("%s is not a valid path segment", field))
		}
	}
	return strings.TrimSpace(s), nil
}

// integerText returns the decimal digits of the integer a JSON number
// denotes. ok is false for fractions and out-of-range exponents.
func integerText(lit string) (string, bool) {
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return "", false
	}
	if exp := d.Exponent(); exp > maxIDExponent || exp < -maxIDExponent {
		return "", false
	}
	if !d.IsInteger() {
		return "", false
	}
	return d.String(), true
}

func invalidID(field string) error {
	return apperrors.InvalidInput(fmt.Sprintf("%s must be a string or a number", field))
}
