package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestPagination(t *testing.T) {
	c, _ := newContext("/?limit=500&offset=-3")
	limit, offset, err := Pagination(c)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, limit)
	assert.Equal(t, 0, offset)

	c, _ = newContext("/")
	limit, _, err = Pagination(c)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, limit)

	c, _ = newContext("/?limit=ten")
	_, _, err = Pagination(c)
	assert.Error(t, err)
}

func TestBoolAndListParams(t *testing.T) {
	c, _ := newContext("/?include_exited=true&status=AVAILABLE,%20DAMAGED,,")
	b, err := BoolParam(c, "include_exited")
	require.NoError(t, err)
	assert.True(t, b)
	assert.Equal(t, []string{"AVAILABLE", "DAMAGED"}, ListParam(c, "status"))

	c, _ = newContext("/?include_exited=maybe")
	_, err = BoolParam(c, "include_exited")
	assert.Error(t, err)
}

func TestSendValidationError(t *testing.T) {
	c, rec := newContext("/")
	require.NoError(t, SendValidationError(c, "quantity", "must be positive"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"VALIDATION_ERROR","message":"Validation failed","details":{"quantity":"must be positive"}}}`, rec.Body.String())
}
