package api

import (
	"encoding/json"
	"errors"
)

// Kind tells where a request failed.
type Kind string

const (
	// KindTransport means no response arrived.
	KindTransport Kind = "transport"
	// KindServer means the service answered with a non-2xx status.
	KindServer Kind = "server"
	// KindClient means the request could not be built or the reply could not be read.
	KindClient Kind = "client"
)

const (
	msgNoResponse = "No response received from server"
	msgServer     = "Server error"
	msgUnknown    = "Unknown error occurred"
)

// Error is a normalized request failure. Error() is the human readable
// message consumers show; Status is 0 unless the server answered.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: msgNoResponse, Err: err}
}

// serverError reads the message field of an error body when there is one.
func serverError(status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
	}
	msg := msgServer
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &Error{Kind: KindServer, Status: status, Message: msg}
}

func clientError(err error) *Error {
	msg := msgUnknown
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Kind: KindClient, Message: msg, Err: err}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// KindOf returns the failure kind of err. Foreign errors count as client errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindClient
}
