// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode resolves free-text postal addresses into coordinates and normalized
// address components. Providers implement Geocoder; ChainGeocoder and CachedGeocoder
// compose them.
package geocode

import (
	"context"
	"strings"

	"github.com/wneessen/geochain/internal/vartype"
)

// Result is the normalized address record produced by any provider. Any field may be
// unset when the provider cannot supply it. Results are values: two Results with equal
// fields are interchangeable and compare equal with ==.
type Result struct {
	Latitude   vartype.VarFloat64 `json:"latitude"`
	Longitude  vartype.VarFloat64 `json:"longitude"`
	City       vartype.VarString  `json:"city"`
	Street     vartype.VarString  `json:"street"` // including premise and house number
	PostalCode vartype.VarString  `json:"postal_code"`
	StateCode  vartype.VarString  `json:"state_code"` // ISO 3166-2
}

// NewResult returns a Result for the given values. The postal code is normalized by
// NormalizePostalCode.
func NewResult(lat, lon vartype.VarFloat64, city, street, postalCode, stateCode vartype.VarString) Result {
	if postalCode.IsSet() {
		postalCode = vartype.NewVariable(NormalizePostalCode(postalCode.Value()))
	}
	return Result{
		Latitude:   lat,
		Longitude:  lon,
		City:       city,
		Street:     street,
		PostalCode: postalCode,
		StateCode:  stateCode,
	}
}

// NormalizePostalCode removes all whitespace from a postal code, so "12 345" becomes "12345".
func NormalizePostalCode(code string) string {
	return strings.Join(strings.Fields(code), "")
}

// Geocoder is implemented by each geocoding provider and by the decorators that wrap them.
// Geocode either returns a Result or fails; failures caused by the provider are *Error values.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, address string) (Result, error)
}
