package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listRequest struct {
	Kinds string `query:"kinds" validate:"omitempty,csv_oneof=NEWS MEME"`
	Limit int    `query:"limit" default:"10" validate:"gte=1,lte=50"`
}

func bind(target string, req interface{}) interface{} {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	return ReadAndValidateRequest(c, req)
}

func TestReadAndValidateDefaults(t *testing.T) {
	req := &listRequest{}
	require.Nil(t, bind("/x?kinds=news,%20meme,", req))
	assert.Equal(t, 10, req.Limit)
}

func TestCSVOneOfRejectsUnknownItem(t *testing.T) {
	verr := bind("/x?kinds=news,podcast", &listRequest{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_CSV_ONEOF", errs[0].Code)
	assert.Equal(t, "kinds", errs[0].Field)
	assert.Equal(t, []string{"NEWS", "MEME"}, errs[0].Params["options"])
}

func TestValidationUsesWireNames(t *testing.T) {
	verr := bind("/x?limit=99", &listRequest{})
	errs := verr.([]ValidationError)
	require.Len(t, errs, 1)
	assert.Equal(t, "limit", errs[0].Field)
	assert.Equal(t, "limit must be less than or equal to 50", errs[0].Message)
}

func TestAppErrorRetryAfter(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, TooManyRequestsError("slow down").WithRetryAfter(1500_000_000)))
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"status":429`)
	assert.Contains(t, rec.Body.String(), "ERR_TOO_MANY_REQUESTS")
}
