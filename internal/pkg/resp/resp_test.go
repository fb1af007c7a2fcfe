package resp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satorugram/internal/pkg/errs"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var body JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, httptest.NewRequest(http.MethodGet, "/", nil), map[string]int{"count": 2})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, map[string]any{"count": float64(2)}, body.Data)
}

func TestRespondError(t *testing.T) {
	tcases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{name: "validation error", err: errs.NewError(errs.ErrNicknameTaken), status: http.StatusOK, code: errs.ErrNicknameTaken},
		{name: "not found", err: errs.NewError(errs.ErrPostNotFound), status: http.StatusNotFound, code: errs.ErrPostNotFound},
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError, code: errs.ErrUnknown},
		{name: "wrapped internal", err: errs.Wrap(errs.ErrStorageWriteFailed, errors.New("quota")), status: http.StatusInternalServerError, code: errs.ErrStorageWriteFailed},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, httptest.NewRequest(http.MethodPost, "/", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.NotContains(t, body.Message, "quota")
		})
	}
}
