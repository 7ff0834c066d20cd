package handlers

import (
	"bytes"
	"io"
)

// jsonBody wraps a raw JSON literal as a request body reader.
func jsonBody(raw string) io.Reader {
	return bytes.NewBufferString(raw)
}
