// internal/httpclient/errors.go
package httpclient

import (
	"encoding/json"
	"net/http"
	"strings"

	xerrors "janmanch-client/internal/pkg/errors"
)

// errorBody is the structured failure shape the backend returns. Either
// field may be missing; normalization falls through in priority order.
type errorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Msg   string `json:"msg"`
		Field string `json:"field,omitempty"`
	} `json:"errors"`
}

// normalizeFailure turns a non-2xx response into a single tagged error.
// Message priority: structured message, joined field errors, HTTP status
// text, then the generic fallback.
func normalizeFailure(status int, raw []byte) error {
	kind := kindForStatus(status)

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	apiErr := &xerrors.APIError{Kind: kind, Status: status}
	for _, fe := range body.Errors {
		if fe.Msg != "" {
			apiErr.Fields = append(apiErr.Fields, fe.Msg)
		}
	}

	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case len(apiErr.Fields) > 0:
		apiErr.Message = strings.Join(apiErr.Fields, "; ")
	case http.StatusText(status) != "":
		apiErr.Message = http.StatusText(status)
	default:
		apiErr.Message = xerrors.GenericMessage
	}
	return apiErr
}

func kindForStatus(status int) xerrors.Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return xerrors.KindAuth
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return xerrors.KindValidation
	default:
		return xerrors.KindServer
	}
}
