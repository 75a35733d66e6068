// Package decoder fills query-string structs (paging, sorting, search and
// title filters) from url.Values.
package decoder

import (
	"errors"
	"net/url"

	"github.com/gorilla/schema"
)

type URLDecoder struct {
	dec *schema.Decoder
}

func New() *URLDecoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	dec.ZeroEmpty(true)
	return &URLDecoder{dec: dec}
}

func (d *URLDecoder) Decode(dst any, src url.Values) error {
	return d.dec.Decode(dst, src)
}

// FieldErrors flattens a decode error into a field -> message map.
// Errors that are not tied to a field land under "query".
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var multi schema.MultiError
	if !errors.As(err, &multi) {
		out["query"] = err.Error()
		return out
	}
	for key, fieldErr := range multi {
		var convErr schema.ConversionError
		if errors.As(fieldErr, &convErr) {
			out[key] = "Value has an invalid format"
			continue
		}
		out[key] = fieldErr.Error()
	}
	return out
}
