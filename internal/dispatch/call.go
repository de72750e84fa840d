package dispatch

import (
	"encoding/json"
	"net/http"
	"time"
)

// Call describes one outgoing backend request.
type Call struct {
	Method  string
	Path    string
	Body    []byte
	Header  http.Header
	// Timeout bounds the underlying exchange, zero means the transport default.
	Timeout time.Duration

	// CredentialIssuing marks calls whose target hands out credentials, such
	// as login or registration. A 401 on such a call means the submitted
	// credentials were invalid, not that the session expired, so the call
	// never enters the renewal pathway.
	CredentialIssuing bool

	// set once the call has been replayed after a renewal so that a call is
	// retried at most once no matter how often the backend keeps rejecting it
	retried bool
}

// JSONCall builds a call carrying a JSON encoded payload.
func JSONCall(method string, path string, payload any) (Call, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Call{}, err
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return Call{Method: method, Path: path, Body: body, Header: header}, nil
}
