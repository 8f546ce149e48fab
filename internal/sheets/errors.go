package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var (
	// ErrAuthentication indicates that the credentials were malformed or rejected.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound indicates that the spreadsheet or worksheet does not resolve.
	ErrNotFound = errors.New("spreadsheet not found")

	// ErrAccess indicates that the service account lacks permission.
	ErrAccess = errors.New("access denied")

	// ErrTransient indicates a network or service failure. The caller may retry.
	ErrTransient = errors.New("temporarily unavailable")

	// ErrValidation indicates that the given values do not fit the worksheet.
	ErrValidation = errors.New("invalid row")
)

const unparsableRange = "Unable to parse range"

var rateLimitReasons = map[string]struct{}{
	"rateLimitExceeded":     {},
	"userRateLimitExceeded": {},
	"backendError":          {},
}

// classify maps an error returned by the Google client libraries to one of the package's error kinds.
// The original error stays in the chain.
func classify(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kindOf(err), err)
}

func kindOf(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return ErrAuthentication
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return ErrTransient
	}

	switch apiErr.Code {
	case http.StatusUnauthorized:
		return ErrAuthentication

	case http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if _, ok := rateLimitReasons[item.Reason]; ok {
				return ErrTransient
			}
		}
		return ErrAccess

	case http.StatusNotFound:
		return ErrNotFound

	case http.StatusBadRequest:
		// A range naming a worksheet that was renamed or deleted does not parse.
		if strings.HasPrefix(apiErr.Message, unparsableRange) {
			return ErrNotFound
		}
		return ErrValidation

	default:
		return ErrTransient
	}
}
