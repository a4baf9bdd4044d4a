package hh

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testHHConfig(srv.URL), srv.Client(), nil)
}

func TestClientSendsHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, "hh-autoapply-test/1.0", r.Header.Get("HH-User-Agent"))
		assert.Equal(t, "hh-autoapply-test/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"id":"42","email":"dev@example.com","first_name":"Ivan","last_name":"Petrov"}`))
	})

	profile, err := client.Me(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "42", profile.ID)
	assert.Equal(t, "dev@example.com", profile.Email)
	assert.Equal(t, "Ivan", profile.FirstName)
	assert.Equal(t, "Petrov", profile.LastName)
}

func TestClientUnauthorizedRequiresReauth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"type":"oauth","value":"token_expired"}]}`))
	})

	_, err := client.SearchVacancies(context.Background(), "dead", url.Values{"text": {"go"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequireReauth))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "oauth: token_expired", apiErr.Description)
}

func TestClientSearchPassesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vacancies", r.URL.Path)
		assert.Equal(t, "golang backend", r.URL.Query().Get("text"))
		assert.Equal(t, "1", r.URL.Query().Get("area"))
		_, _ = w.Write([]byte(`{"items":[{"id":"1","name":"Go Developer"}],"found":1,"pages":1,"page":0,"per_page":20}`))
	})

	page, err := client.SearchVacancies(context.Background(), "access-1", url.Values{
		"text": {"golang backend"},
		"area": {"1"},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go Developer", page.Items[0].Name)
	assert.Equal(t, 1, page.Found)
}

func TestClientRetriesGetOnce(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantErr   bool
	}{
		{"recovers after 5xx", []int{http.StatusBadGateway, http.StatusOK}, 2, false},
		{"gives up after second 5xx", []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK}, 2, true},
		{"4xx is not retried", []int{http.StatusNotFound, http.StatusOK}, 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tc.statuses[n-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(`{"id":"7","name":"SRE"}`))
				}
			})

			vacancy, err := client.Vacancy(context.Background(), "access-1", "7")
			assert.Equal(t, tc.wantCalls, calls.Load())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "SRE", vacancy.Name)
		})
	}
}

func TestClientResumesForbiddenIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes/mine", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
	})

	list, err := client.Resumes(context.Background(), "access-1")
	require.NoError(t, err)
	assert.True(t, list.NotJobSeeker)
	assert.Empty(t, list.Items)
}

func TestClientApply(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		location     string
		message      string
		wantErr      bool
		wantLocation string
	}{
		{"see other is success", http.StatusSeeOther, "/negotiations/123", "Hello", false, "/negotiations/123"},
		{"created is success", http.StatusCreated, "", "", false, ""},
		{"bad request is an error", http.StatusBadRequest, "", "", true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/negotiations" {
					t.Errorf("redirect was followed to %s", r.URL.Path)
					return
				}
				calls.Add(1)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Equal(t, "v1", r.FormValue("vacancy_id"))
				assert.Equal(t, "r1", r.FormValue("resume_id"))
				assert.Equal(t, tc.message, r.FormValue("message"))
				if tc.location != "" {
					w.Header().Set("Location", tc.location)
				}
				w.WriteHeader(tc.status)
				if tc.status == http.StatusBadRequest {
					_, _ = io.WriteString(w, `{"errors":[{"type":"negotiations","value":"already_applied"}]}`)
				}
			})

			result, err := client.Apply(context.Background(), "access-1", ApplyRequest{
				VacancyID: "v1",
				ResumeID:  "r1",
				Message:   tc.message,
			})
			assert.Equal(t, int32(1), calls.Load(), "submissions are never retried")
			if tc.wantErr {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusBadRequest, apiErr.Status)
				assert.Equal(t, "negotiations: already_applied", apiErr.Description)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.status, result.Status)
			assert.Equal(t, tc.wantLocation, result.Location)
		})
	}
}

func TestNewAPIErrorKeepsRawBody(t *testing.T) {
	err := newAPIError("vacancy", http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	assert.Equal(t, map[string]string{"raw": "<html>bad gateway</html>"}, err.Details)
	assert.False(t, errors.Is(err, ErrRequireReauth))
}

func TestClientNegotiations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/negotiations", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[{"id":"n1","state":{"id":"invitation","name":"Приглашение"},"vacancy":{"id":"7","name":"Go Developer"}}],"found":1}`))
	})

	list, err := client.Negotiations(context.Background(), "access-1")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "invitation", list.Items[0].State.ID)
	assert.Equal(t, "Go Developer", list.Items[0].Vacancy.Name)
}

func TestClientNegotiationsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"found":0}`))
	})

	list, err := client.Negotiations(context.Background(), "access-1")
	require.NoError(t, err)
	assert.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
}
