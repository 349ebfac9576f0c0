package ai

import (
	"errors"
	"fmt"
)

type GatewayErrorKind int

const (
	MissingCredential GatewayErrorKind = iota
	NetworkFailure
	APIError
	SafetyBlocked
	MalformedResponse
)

func (k GatewayErrorKind) String() string {
	switch k {
	case MissingCredential:
		return "missing credential"
	case NetworkFailure:
		return "network failure"
	case APIError:
		return "api error"
	case SafetyBlocked:
		return "safety blocked"
	case MalformedResponse:
		return "malformed response"
	}
	return "unknown"
}

// GatewayError classifies a failed generation call. Status and Message are
// set for APIError; MissingPath names the absent field for MalformedResponse.
type GatewayError struct {
	Kind        GatewayErrorKind
	Status      int
	Message     string
	MissingPath string
	Err         error
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case APIError:
		return fmt.Sprintf("gateway: api error %d: %s", e.Status, e.Message)
	case MalformedResponse:
		return fmt.Sprintf("gateway: malformed response, missing %s", e.MissingPath)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway: %s: %v", e.Kind, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
	}
	return "gateway: " + e.Kind.String()
}

func (e *GatewayError) Unwrap() error { return e.Err }

// GatewayErrorIs reports whether err is a GatewayError of the given kind.
func GatewayErrorIs(err error, kind GatewayErrorKind) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == kind
}
