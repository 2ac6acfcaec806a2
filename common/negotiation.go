package common

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const (
	MediaTypeJSON      = "application/json"
	MediaTypeXML       = "application/xml"
	MediaTypeJSONPatch = "application/json-patch+json"

	maxBodyBytes = 1 << 20
)

var (
	ErrMissingBody          = errors.New("request body is missing")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// Format is a negotiated wire format.
type Format int

const (
	FormatJSON Format = iota
	FormatXML
)

func (f Format) ContentType() string {
	if f == FormatXML {
		return MediaTypeXML + "; charset=utf-8"
	}
	return MediaTypeJSON + "; charset=utf-8"
}

type acceptRange struct {
	mediaType string
	q         float64
}

// NegotiateFormat picks the response format from the Accept header. JSON wins
// ties and is the fallback when nothing acceptable is offered.
func NegotiateFormat(r *http.Request) Format {
	header := r.Header.Get("Accept")
	if header == "" {
		return FormatJSON
	}

	var ranges []acceptRange
	for _, part := range strings.Split(header, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		ranges = append(ranges, acceptRange{mediaType: mediaType, q: q})
	}
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].q > ranges[j].q })

	for _, ar := range ranges {
		switch {
		case ar.mediaType == MediaTypeJSON, strings.HasSuffix(ar.mediaType, "+json"),
			ar.mediaType == "application/*", ar.mediaType == "*/*":
			return FormatJSON
		case ar.mediaType == MediaTypeXML, ar.mediaType == "text/xml", strings.HasSuffix(ar.mediaType, "+xml"):
			return FormatXML
		}
	}
	return FormatJSON
}

// WriteResponse writes payload with status in the negotiated format. A nil
// payload writes headers only, as do HEAD requests.
func WriteResponse(w http.ResponseWriter, r *http.Request, status int, payload interface{}) error {
	format := NegotiateFormat(r)
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(status)

	if payload == nil || r.Method == http.MethodHead {
		return nil
	}
	if format == FormatXML {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		return xml.NewEncoder(w).Encode(payload)
	}
	return json.NewEncoder(w).Encode(payload)
}

func requestFormat(r *http.Request) (Format, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return FormatJSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatJSON, ErrUnsupportedMediaType
	}
	switch {
	case mediaType == MediaTypeJSON, strings.HasSuffix(mediaType, "+json"):
		return FormatJSON, nil
	case mediaType == MediaTypeXML, mediaType == "text/xml":
		return FormatXML, nil
	}
	return FormatJSON, ErrUnsupportedMediaType
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, ErrMissingBody
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, ErrMissingBody
	}
	return body, nil
}

// DecodeBody decodes a JSON or XML request body into payload. It returns
// ErrMissingBody for an empty or null body and ErrUnsupportedMediaType for
// any other content type.
func DecodeBody(w http.ResponseWriter, r *http.Request, payload interface{}) error {
	format, err := requestFormat(r)
	if err != nil {
		return err
	}
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if format == FormatXML {
		return xml.Unmarshal(body, payload)
	}
	return json.Unmarshal(body, payload)
}

// DecodeJSONPatch decodes a JSON Patch document (a JSON array) into payload.
// Both application/json-patch+json and application/json are accepted.
func DecodeJSONPatch(w http.ResponseWriter, r *http.Request, payload interface{}) error {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || (mediaType != MediaTypeJSONPatch && mediaType != MediaTypeJSON) {
			return ErrUnsupportedMediaType
		}
	}
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, payload)
}

// BodyError maps a DecodeBody/DecodeJSONPatch failure to its HTTP error.
func BodyError(err error) *AppError {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return NewAppError(http.StatusUnsupportedMediaType, "Unsupported media type", err)
	case errors.Is(err, ErrMissingBody):
		return NewAppError(http.StatusBadRequest, "Request body is required", err)
	default:
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}
}
