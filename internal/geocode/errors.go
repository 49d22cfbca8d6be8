// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"errors"
	"fmt"
)

// Kind classifies why a provider could not produce a Result.
type Kind int

const (
	// KindFailure means the request could not be completed, the response was malformed or the
	// provider reported an internal error.
	KindFailure Kind = iota
	// KindQuotaLimit means the provider refused service due to usage limits.
	KindQuotaLimit
	// KindNoExactResult means the provider understood the request but found no precise result.
	KindNoExactResult
)

var kindNames = map[Kind]string{
	KindFailure:       "failure",
	KindQuotaLimit:    "quota_limit",
	KindNoExactResult: "no_exact_result",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind returns the Kind for one of the names "failure", "quota_limit" or "no_exact_result".
func ParseKind(name string) (Kind, error) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown geocoding failure kind: %q", name)
}

// DefaultSkipKinds returns the failure kinds a ChainGeocoder skips by default.
func DefaultSkipKinds() []Kind {
	return []Kind{KindFailure, KindQuotaLimit}
}

// Error is returned by providers when an address could not be geocoded.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	// Hint explains why no exact result was found. Only set for KindNoExactResult.
	Hint string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewFailure returns a KindFailure error for the given provider.
func NewFailure(provider, message string, err error) *Error {
	return &Error{Kind: KindFailure, Provider: provider, Message: message, Err: err}
}

// NewQuotaLimit returns a KindQuotaLimit error for the given provider.
func NewQuotaLimit(provider, message string) *Error {
	return &Error{Kind: KindQuotaLimit, Provider: provider, Message: message}
}

// NewNoExactResult returns a KindNoExactResult error for the given provider with an optional hint.
func NewNoExactResult(provider, message, hint string) *Error {
	return &Error{Kind: KindNoExactResult, Provider: provider, Message: message, Hint: hint}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Kind, true
	}
	return 0, false
}

// HintOf returns the hint of the first *Error in err's chain.
func HintOf(err error) string {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Hint
	}
	return ""
}

// IsFailure reports whether err is a KindFailure error.
func IsFailure(err error) bool {
	return isKind(err, KindFailure)
}

// IsQuotaLimit reports whether err is a KindQuotaLimit error.
func IsQuotaLimit(err error) bool {
	return isKind(err, KindQuotaLimit)
}

// IsNoExactResult reports whether err is a KindNoExactResult error.
func IsNoExactResult(err error) bool {
	return isKind(err, KindNoExactResult)
}

func isKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
