package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		Rating Rating `json:"rating"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating":null}`, string(b))

	b, err = json.Marshal(NewRating(8))
	require.NoError(t, err)
	assert.Equal(t, "8", string(b))

	b, err = json.Marshal(NewRating(22.0 / 3))
	require.NoError(t, err)
	assert.Equal(t, "7.33", string(b))
}

func TestRatingScan(t *testing.T) {
	var r Rating
	require.NoError(t, r.Scan(nil))
	assert.False(t, r.Valid)

	require.NoError(t, r.Scan(float64(7.5)))
	assert.Equal(t, NewRating(7.5), r)

	assert.Error(t, r.Scan("8"))
}
