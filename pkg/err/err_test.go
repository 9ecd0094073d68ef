package errprocess

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorIs(t *testing.T) {
	t.Run("matches sentinel by code", func(t *testing.T) {
		err := Unavailable("partner offline")
		assert.True(t, errors.Is(err, ErrUnavailable))
		assert.False(t, errors.Is(err, ErrNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("relay: %w", Authorization("not a participant"))
		assert.True(t, errors.Is(err, ErrAuthorization))
		assert.Equal(t, CodeAuthorization, CodeOf(err))
	})

	t.Run("storage keeps cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Storage("append message", cause)
		assert.True(t, errors.Is(err, cause))
		assert.True(t, errors.Is(err, ErrStorage))
		assert.Equal(t, "append message: connection refused", err.Error())
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeValidation, CodeOf(Validation("empty content")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		nil:                             http.StatusOK,
		Authentication("bad token"):     http.StatusUnauthorized,
		Authorization("not yours"):      http.StatusForbidden,
		NotFound("chat"):                http.StatusNotFound,
		Unavailable("offline"):          http.StatusServiceUnavailable,
		Conflict("race"):                http.StatusConflict,
		Validation("empty"):             http.StatusBadRequest,
		Storage("db", errors.New("x")):  http.StatusInternalServerError,
		errors.New("something unknown"): http.StatusInternalServerError,
	}
	for err, status := range cases {
		assert.Equal(t, status, HTTPStatus(err), "%v", err)
	}
}
