// Package dasherrors contains all common errors used by the dashboard.
package dasherrors

import "fmt"

var ErrCredentialsNotFound = fmt.Errorf("the credential pair cannot be found")
var ErrNoRenewalCredential = fmt.Errorf("no renewal credential is available")
var ErrSessionExpired = fmt.Errorf("the backend session is expired")
var ErrRenewalSuppressed = fmt.Errorf("credential renewal is suppressed after a recent failure")
var ErrInvalidCredentials = fmt.Errorf("the provided credentials were rejected")
var ErrMissingDBResource = fmt.Errorf("the requested resource cannot be found in the DB")
var ErrViewNotFound = fmt.Errorf("the dashboard view cannot be found")
