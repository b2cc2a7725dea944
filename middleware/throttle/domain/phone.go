package domain

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion é usada para números sem código de país (ex: 070-123 45 67).
const DefaultRegion = "SE"

// NormalizePhone converte o número para E.164, assumindo Suécia quando não há
// código de país. O resultado é usado como Identity.
func NormalizePhone(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: phone is empty", ErrInvalidArgument)
	}
	if strings.HasPrefix(raw, "00") {
		raw = "+" + strings.TrimPrefix(raw, "00")
	}

	num, err := phonenumbers.Parse(raw, DefaultRegion)
	if err != nil {
		return "", fmt.Errorf("%w: phone %q: %v", ErrInvalidArgument, raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: phone %q is not a valid number", ErrInvalidArgument, raw)
	}
	return Identity(phonenumbers.Format(num, phonenumbers.E164)), nil
}
