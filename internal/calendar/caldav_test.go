package calendar

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBasicAuthTransport(t *testing.T) {
	t.Run("sets credentials and passes responses through", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "alice" || pass != "secret" {
				t.Errorf("got basic auth %q/%q (ok=%v), want alice/secret", user, pass, ok)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := &http.Client{Transport: &basicAuthTransport{
			username: "alice",
			password: "secret",
			base:     http.DefaultTransport,
		}}
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("got status %d, want 200", resp.StatusCode)
		}
	})

	t.Run("credential rejection surfaces as statusError", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			client := &http.Client{Transport: &basicAuthTransport{
				username: "alice",
				password: "wrong",
				base:     http.DefaultTransport,
			}}
			_, err := client.Get(srv.URL)
			srv.Close()
			if err == nil {
				t.Fatalf("status %d: got nil error", status)
			}

			var se *statusError
			if !errors.As(err, &se) {
				t.Fatalf("status %d: got %v, want statusError", status, err)
			}
			if se.status != status {
				t.Errorf("got status %d, want %d", se.status, status)
			}
			if !isAuthError(err) {
				t.Errorf("status %d: isAuthError = false, want true", status)
			}
		}
	})

	t.Run("server errors are not auth errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := &http.Client{Transport: &basicAuthTransport{
			username: "alice",
			password: "secret",
			base:     http.DefaultTransport,
		}}
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("got status %d, want 500", resp.StatusCode)
		}
	})
}
