// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package smartform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/wneessen/geochain/internal/geocode"
	"github.com/wneessen/geochain/internal/http"
	"github.com/wneessen/geochain/internal/vartype"
)

const (
	APIEndpoint = "https://secure.smartform.cz/smartform-ws/validateAddress/v3"
	APITimeout  = time.Second * 10
	name        = "smartform"
)

const (
	ResultCodeOK   = "OK"
	ResultCodeFail = "FAIL"
	PrecisionExact = "HIT"
)

// Config is the fixed configuration of a Smartform geocoder.
type Config struct {
	Password string
	// Params are merged into every request body, e.g. {"countries": []string{"CZ"}}.
	Params map[string]any
}

type Smartform struct {
	http     *http.Client
	password string
	params   map[string]any
}

type Response struct {
	ResultCode   string `json:"resultCode"`
	ErrorMessage string `json:"errorMessage"`
	Result       struct {
		Type      string    `json:"type"`
		Hint      string    `json:"hint"`
		Addresses []Address `json:"addresses"`
	} `json:"result"`
}

type Address struct {
	Coordinates *Coordinates `json:"coordinates"`
	Values      Values       `json:"values"`
}

type Coordinates struct {
	GPSLat float64 `json:"gpsLat"`
	GPSLng float64 `json:"gpsLng"`
}

type Values struct {
	FirstLine   *string `json:"FIRST_LINE"`
	SecondLine  *string `json:"SECOND_LINE"`
	ZIP         *string `json:"ZIP"`
	CountryCode *string `json:"COUNTRY_CODE"`
}

func New(client *http.Client, conf Config) *Smartform {
	return &Smartform{
		http:     client,
		password: conf.Password,
		params:   maps.Clone(conf.Params),
	}
}

func (s *Smartform) Name() string {
	return name
}

func (s *Smartform) Geocode(ctx context.Context, address string) (geocode.Result, error) {
	data := make(map[string]any, len(s.params)+2)
	maps.Copy(data, s.params)
	data["values"] = map[string]string{"WHOLE_ADDRESS": address}
	data["password"] = s.password

	body, err := json.Marshal(data)
	if err != nil {
		return geocode.Result{}, geocode.NewFailure(name, "failed to encode Smartform request", err)
	}
	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}

	var response Response
	code, err := s.http.PostWithTimeout(ctx, APIEndpoint, &response, bytes.NewReader(body), headers, APITimeout)
	if err != nil {
		if ctx.Err() != nil {
			return geocode.Result{}, err
		}
		return geocode.Result{}, geocode.NewFailure(name, "HTTP request to Smartform API failed", err)
	}
	if code != 200 {
		return geocode.Result{}, geocode.NewFailure(name,
			fmt.Sprintf("unexpected HTTP code from Smartform API: %d", code), nil)
	}

	if response.ResultCode == ResultCodeFail {
		return geocode.Result{}, geocode.NewFailure(name,
			fmt.Sprintf("Smartform geocoding failed: %s", response.ErrorMessage), nil)
	}
	if response.Result.Type != PrecisionExact {
		return geocode.Result{}, geocode.NewNoExactResult(name, "no exact address found", response.Result.Hint)
	}
	if len(response.Result.Addresses) == 0 {
		return geocode.Result{}, geocode.NewFailure(name, "Smartform API returned a hit without addresses", nil)
	}

	found := response.Result.Addresses[0]
	var lat, lng vartype.VarFloat64
	if found.Coordinates != nil {
		lat.Set(found.Coordinates.GPSLat)
		lng.Set(found.Coordinates.GPSLng)
	}
	return geocode.NewResult(lat, lng,
		optional(found.Values.SecondLine),
		optional(found.Values.FirstLine),
		optional(found.Values.ZIP),
		optional(found.Values.CountryCode),
	), nil
}

func optional(value *string) vartype.VarString {
	if value == nil {
		return vartype.VarString{}
	}
	return vartype.NewVariable(*value)
}
