package report

import (
	"encoding/base64"
	"strings"

	"github.com/sakif/user-reports/internal/apperror"
)

// MediaType is the media type of rendered reports.
const MediaType = "application/pdf"

const uriPrefix = "data:" + MediaType + ";base64,"

// Encode wraps a rendered artifact in a self-contained data URI using the
// standard base64 alphabet without line breaks.
//
// An empty artifact means rendering went wrong upstream; it is rejected with
// an error matching apperror.ErrEncoding.
func Encode(artifact []byte) (string, error) {
	if len(artifact) == 0 {
		return "", apperror.EncodingFailed("report: empty artifact cannot be encoded")
	}
	return uriPrefix + base64.StdEncoding.EncodeToString(artifact), nil
}

// Decode is the inverse of Encode. It accepts only URIs of the form Encode
// produces.
func Decode(uri string) ([]byte, error) {
	payload, ok := strings.CutPrefix(uri, uriPrefix)
	if !ok {
		return nil, apperror.EncodingFailed("report: not a " + MediaType + " base64 data URI")
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrEncoding,
			Message: "report: malformed base64 payload",
			Cause:   err,
		}
	}
	return b, nil
}
