package test

import (
	"Saffron/pkg/log"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Format of Request helper ExecuteAPITest() handles
type RequestAPITest struct {
	Method       string            // Method of API request - [GET, POST, PUT, DELETE . . .]
	Path         string            // API Path
	Body         *bytes.Reader     // Request Body
	WantResponse []int             // Expected Response according to request
	Header       map[string]string // Request headers
	Parameters   url.Values        // Query parameters
	Cookie       []*http.Cookie    // Request cookies
}

// Recorded result of a request executed by ExecuteAPITest().
type APIResponse struct {
	Code   int
	Body   []byte
	Header http.Header
	Cookie []*http.Cookie
}

// Decode unmarshals the response body into v, failing the test on error.
func (r APIResponse) Decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), "response body: %s", string(r.Body))
}

// Headers sent with every JSON request in Saffron tests.
func MockHeader() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}

// JSONBody marshals v into a request body.
func JSONBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

// Helper to execute API tests in Saffron.
func ExecuteAPITest(logger log.Logger, t *testing.T, router http.Handler, request *RequestAPITest) APIResponse {
	t.Helper()
	body := request.Body
	if body == nil {
		body = bytes.NewReader([]byte{})
	}
	// Setup the test request
	req, reqerr := http.NewRequest(request.Method, request.Path, body)
	if reqerr != nil {
		// Error in NewRequest
		logger.Error().Err(reqerr).Msg("Error occured during calling NewRequest in ExecuteAPITest()")
		t.FailNow()
	}
	for key, val := range request.Header {
		req.Header.Set(key, val)
	}
	if len(request.Parameters) > 0 {
		req.URL.RawQuery = request.Parameters.Encode()
	}
	for _, cookie := range request.Cookie {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	// Assert the response
	assert.Contains(t, request.WantResponse, w.Code, "%s %s responded with %s", request.Method, request.Path, w.Body.String())
	return APIResponse{
		Code:   w.Code,
		Body:   w.Body.Bytes(),
		Header: w.Header(),
		Cookie: w.Result().Cookies(),
	}
}
