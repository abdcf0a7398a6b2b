package resolver

import (
	"bytes"
	"strings"
)

// Inputs carries the raw user-supplied specimen candidates for one scan.
type Inputs struct {
	URL     string // live URL to probe
	File    []byte // uploaded export bytes, nil when no upload is present
	OpenAPI string // pasted specification text
}

// Payload is the single outbound /scan request body. Exactly one field is
// populated per resolution.
type Payload struct {
	URL     string  `json:"url,omitempty"`
	File    *string `json:"file,omitempty"`
	OpenAPI string  `json:"openapi,omitempty"`
	Demo    bool    `json:"demo,omitempty"`
}

// Resolve picks exactly one payload shape from the populated inputs. A live
// URL beats an uploaded file beats pasted text; an empty form falls back to
// the demo specimen. Lower-priority inputs are silently ignored. Pure: no
// I/O and no side effects.
func Resolve(in Inputs) Payload {
	if u := strings.TrimSpace(in.URL); u != "" {
		return Payload{URL: u}
	}
	if in.File != nil {
		text := decodeLossy(in.File)
		return Payload{File: &text}
	}
	if strings.TrimSpace(in.OpenAPI) != "" {
		return Payload{OpenAPI: in.OpenAPI}
	}
	return Payload{Demo: true}
}

// decodeLossy recovers text from arbitrary bytes, substituting the
// replacement rune for invalid UTF-8 instead of failing the request over an
// encoding issue.
func decodeLossy(b []byte) string {
	return string(bytes.ToValidUTF8(b, []byte("�")))
}
