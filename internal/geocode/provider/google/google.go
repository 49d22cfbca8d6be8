// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package google

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/geochain/internal/geocode"
	"github.com/wneessen/geochain/internal/http"
	"github.com/wneessen/geochain/internal/vartype"
)

const (
	APIEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"
	APITimeout  = time.Second * 10
	name        = "google"
)

// Response status values and the location type of an exact match.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusOverDailyLimit = "OVER_DAILY_LIMIT"
	StatusUnknownError   = "UNKNOWN_ERROR"
	PrecisionExact       = "ROOFTOP"
)

// Config is the fixed configuration of a Google geocoder.
type Config struct {
	APIKey   string
	Language language.Tag
	// Params are added to every request, e.g. {"components": "country:CZ"}.
	Params map[string]string
}

type Google struct {
	http   *http.Client
	apikey string
	lang   language.Tag
	params map[string]string
}

type Response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []Result `json:"results"`
}

type Result struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          Geometry           `json:"geometry"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type Geometry struct {
	Location     Location `json:"location"`
	LocationType string   `json:"location_type"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// components holds the address components relevant for the canonical result.
type components struct {
	city         vartype.VarString
	postalCode   vartype.VarString
	stateCode    vartype.VarString
	route        vartype.VarString
	premise      vartype.VarString
	streetNumber vartype.VarString
}

func New(client *http.Client, conf Config) *Google {
	return &Google{
		http:   client,
		apikey: conf.APIKey,
		lang:   conf.Language,
		params: maps.Clone(conf.Params),
	}
}

func (g *Google) Name() string {
	return name
}

func (g *Google) Geocode(ctx context.Context, address string) (geocode.Result, error) {
	query := url.Values{}
	for k, v := range g.params {
		query.Set(k, v)
	}
	if g.apikey != "" {
		query.Set("key", g.apikey)
	}
	if g.lang != language.Und {
		query.Set("language", g.lang.String())
	}
	query.Set("address", address)

	return g.execute(ctx, query, false)
}

func (g *Google) execute(ctx context.Context, query url.Values, retrying bool) (geocode.Result, error) {
	var response Response

	code, err := g.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout)
	if err != nil {
		// Cancellation belongs to the caller, not to the provider
		if ctx.Err() != nil {
			return geocode.Result{}, err
		}
		return geocode.Result{}, geocode.NewFailure(name, "HTTP request to Google geocoding API failed", err)
	}
	if code != 200 {
		return geocode.Result{}, geocode.NewFailure(name,
			fmt.Sprintf("unexpected HTTP code from Google geocoding API: %d", code), nil)
	}

	switch response.Status {
	case StatusOK:
	case StatusOverQueryLimit, StatusOverDailyLimit:
		return geocode.Result{}, geocode.NewQuotaLimit(name, "Google geocoding API quota limit exceeded")
	case StatusZeroResults:
		return geocode.Result{}, geocode.NewNoExactResult(name, "given address was not found at all", "")
	case StatusUnknownError:
		if retrying {
			return geocode.Result{}, geocode.NewFailure(name, "repeated server error received from Google geocoding API", nil)
		}
		return g.execute(ctx, query, true)
	default:
		return geocode.Result{}, geocode.NewFailure(name,
			fmt.Sprintf("Google geocoding API returned status %s: %s", response.Status, response.ErrorMessage), nil)
	}

	// Only the first result is considered
	if len(response.Results) == 0 {
		return geocode.Result{}, geocode.NewNoExactResult(name, "given address was not found at all", "")
	}
	result := response.Results[0]
	if result.Geometry.LocationType != PrecisionExact {
		return geocode.Result{}, geocode.NewNoExactResult(name, "exact address was not found", "")
	}

	comps := collectComponents(result.AddressComponents)
	return geocode.NewResult(
		vartype.NewVariable(result.Geometry.Location.Lat),
		vartype.NewVariable(result.Geometry.Location.Lng),
		comps.city,
		composeStreet(comps),
		comps.postalCode,
		comps.stateCode,
	), nil
}

func collectComponents(list []AddressComponent) components {
	var comps components
	for _, component := range list {
		for _, componentType := range component.Types {
			switch componentType {
			case "postal_code":
				comps.postalCode.Set(component.LongName)
			case "locality":
				comps.city.Set(component.LongName)
			case "premise":
				comps.premise.Set(component.LongName)
			case "street_number":
				comps.streetNumber.Set(component.LongName)
			case "route":
				comps.route.Set(component.LongName)
			case "country":
				comps.stateCode.Set(component.ShortName)
			}
		}
	}
	return comps
}

// composeStreet builds the street line. Without a route the city is used instead. A premise
// (Czech "číslo popisné") is appended after a space, followed by "/" and the street number
// ("číslo orientační") if both exist. A street number alone is appended after a space.
func composeStreet(comps components) vartype.VarString {
	street := comps.route
	if !street.IsSet() {
		street = comps.city
	}

	switch {
	case comps.premise.IsSet():
		line := street.Value() + " " + comps.premise.Value()
		if comps.streetNumber.IsSet() {
			line += "/" + comps.streetNumber.Value()
		}
		street.Set(line)
	case comps.streetNumber.IsSet():
		street.Set(street.Value() + " " + comps.streetNumber.Value())
	}
	return street
}
