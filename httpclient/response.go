package httpclient

import (
	"encoding/json"
	"net/http"

	"github.com/andyle182810/wpsec/apierror"
)

type Result struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
	RequestID  string
	Attempts   int
}

// Decode unmarshals the body into target. A body that does not fit target's
// shape is a malformed response, not a caller error.
func (r *Result) Decode(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		apiErr := apierror.Wrap(apierror.KindMalformedResponse, err, "unexpected response shape: "+err.Error())
		apiErr.StatusCode = r.StatusCode
		apiErr.RequestID = r.RequestID
		apiErr.Attempts = r.Attempts

		return apiErr
	}

	return nil
}

func (r *Result) ContentType() string {
	if r.Header == nil {
		return ""
	}

	return r.Header.Get(HeaderContentType)
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
