package fields

import (
	"fmt"
	"math"
	"strconv"
)

// Rating is the mean review score of a title. The zero value means the
// title has not been reviewed and is encoded as JSON null.
type Rating struct {
	Value float64
	Valid bool
}

func NewRating(v float64) Rating {
	return Rating{Value: v, Valid: true}
}

// Scan accepts the nullable float8 produced by avg().
func (r *Rating) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Rating{}
	case float64:
		*r = NewRating(v)
	case float32:
		*r = NewRating(float64(v))
	case int64:
		*r = NewRating(float64(v))
	default:
		return &scanError{src}
	}
	return nil
}

func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	rounded := math.Round(r.Value*100) / 100
	return []byte(strconv.FormatFloat(rounded, 'f', -1, 64)), nil
}

type scanError struct{ src any }

func (e *scanError) Error() string {
	return "fields: cannot scan rating from " + fmt.Sprintf("%T", e.src)
}
