package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrChainUnsupported marks a chain identifier the resolver could not
// map to a supported family.
var ErrChainUnsupported = errors.New("chain not supported")

// ErrTotalDataStarvation marks a fetch where every provider failed and
// no partial record could be assembled.
var ErrTotalDataStarvation = errors.New("no data source returned usable token data")

// ErrInsufficientData is the sentinel matched by errors.Is against
// *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data for risk scoring")

// InsufficientDataError carries the list of fields that were missing
// when a POOR-quality record was rejected before scoring. Callers render
// Missing to the user instead of a score.
type InsufficientDataError struct {
	Token   string
	Chain   string
	Missing []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s on chain %s: missing %s",
		e.Token, e.Chain, strings.Join(e.Missing, ", "))
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
