package mission

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest = errors.New("invalid mission request")
	// ErrNotNumeric marks a config string that should have been a number.
	ErrNotNumeric = errors.New("value is not numeric")
	// ErrMissingField marks a struct field the engine cannot do without.
	ErrMissingField = errors.New("required field missing")
	// ErrBadIndex marks a monthly override pointing outside its list.
	ErrBadIndex = errors.New("override index out of range")
	// ErrBadWeights marks chances that cannot be drawn from (negative total).
	ErrBadWeights = errors.New("chances have no positive weight")
)

// ConfigError is a fatal configuration problem found while generating.
type ConfigError struct {
	Section string
	Key     string
	Field   string // struct field, empty for plain keys
	Value   string
	Err     error
}

func (e *ConfigError) Error() string {
	where := e.Section + "/" + e.Key
	if e.Field != "" {
		where += "." + e.Field
	}
	return fmt.Sprintf("config %s=%q: %v", where, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// validateRequest checks the generate inputs and fills the default ship type.
func validateRequest(req Request) (Request, error) {
	var errs []string
	switch req.MissionType {
	case Abduction, Terror, UFO, Special:
	default:
		errs = append(errs, fmt.Sprintf("mission type %q must be one of Abduction, Terror, UFO, Special", req.MissionType))
	}
	if req.Research < 0 {
		errs = append(errs, "research must be >= 0")
	}
	if req.Resources < 0 {
		errs = append(errs, "resources must be >= 0")
	}
	if req.Difficulty < 1 {
		errs = append(errs, "difficulty must be >= 1")
	}
	if req.ShipType == "" {
		req.ShipType = ShipSupply
	}
	if !req.ShipType.Valid() {
		errs = append(errs, fmt.Sprintf("unknown ship type %q", req.ShipType))
	}
	if len(errs) > 0 {
		return req, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, "; "))
	}
	return req, nil
}
