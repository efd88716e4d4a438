// Package apperr defines the error kinds shared across the tile assembly
// pipeline and their mapping to HTTP status codes.
package apperr

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the way the pipeline needs to react to it:
// retry, fail the request, or fail the process at startup.
type Kind int

const (
	// KindValidation covers bad tile coordinates, unsupported projections,
	// unknown bin modes, and missing required parameters.
	KindValidation Kind = iota
	// KindBackend covers unrecoverable store/search failures after retries.
	KindBackend
	// KindCodec covers corrupt stored tiles.
	KindCodec
	// KindConfiguration covers missing table names or metastore wiring.
	KindConfiguration
	// KindTimeout covers requests that exceeded their wall-clock budget.
	KindTimeout
	// KindNoData is internal only and must never reach an HTTP response;
	// callers translate it into an empty tile.
	KindNoData
)

// Error is a classified failure with a short machine-readable code and a
// human-readable message safe to return to a client. It never carries
// backend table names or row keys in its public message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newErr(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// Validation builds a KindValidation error.
func Validation(message string, cause error) *Error {
	return newErr(KindValidation, "validation_error", message, cause)
}

// Backend builds a KindBackend error.
func Backend(message string, cause error) *Error {
	return newErr(KindBackend, "backend_error", message, cause)
}

// Codec builds a KindCodec error.
func Codec(message string, cause error) *Error {
	return newErr(KindCodec, "codec_error", message, cause)
}

// Configuration builds a KindConfiguration error.
func Configuration(message string, cause error) *Error {
	return newErr(KindConfiguration, "configuration_error", message, cause)
}

// Timeout builds a KindTimeout error.
func Timeout(message string, cause error) *Error {
	return newErr(KindTimeout, "timeout_error", message, cause)
}

// NoData is a sentinel signalling "zero features"; it must be intercepted by
// the assembler and never surfaced to an HTTP response.
var NoData = newErr(KindNoData, "no_data", "no features in tile", nil)

// IsNoData reports whether err is (or wraps) the NoData sentinel.
func IsNoData(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindNoData
	}
	return false
}

// HTTPStatus maps an error kind to the status code spec.md §7 assigns it.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindBackend:
		return http.StatusServiceUnavailable
	case KindCodec, KindConfiguration:
		return http.StatusInternalServerError
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError extracts the *Error from err, if any.
func AsAppError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
