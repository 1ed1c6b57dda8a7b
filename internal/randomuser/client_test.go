package randomuser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RandomUserService/config"
	"RandomUserService/pkg/apperrors"

	"go.uber.org/zap"
)

const samplePayload = `{
  "results": [{
    "gender": "female",
    "name": {"title": "Mme", "first": "Camille", "last": "Roux"},
    "location": {
      "street": {"number": 4521, "name": "Rue de la Paix"},
      "city": "Paris",
      "state": "Île-de-France",
      "country": "France",
      "postcode": 75002,
      "coordinates": {"latitude": "48.8686", "longitude": "2.3314"}
    },
    "email": "camille.roux@example.com",
    "login": {"uuid": "x", "username": "bluecat512"},
    "dob": {"date": "1990-03-14T08:21:09.521Z", "age": 35},
    "phone": "01-23-45-67-89",
    "cell": "06-12-34-56-78",
    "picture": {
      "large": "https://randomuser.me/api/portraits/women/1.jpg",
      "medium": "https://randomuser.me/api/portraits/med/women/1.jpg",
      "thumbnail": "https://randomuser.me/api/portraits/thumb/women/1.jpg"
    }
  }],
  "info": {"seed": "abc", "results": 1, "page": 1, "version": "1.4"}
}`

func newTestClient(url string) *Client {
	return NewClient(config.UpstreamConfig{URL: url, Timeout: time.Second}, zap.NewNop())
}

// TestFetchOne проверяет разбор успешного ответа API
func TestFetchOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	profile, err := newTestClient(srv.URL).FetchOne(context.Background())
	if err != nil {
		t.Fatalf("FetchOne returned error: %v", err)
	}

	checks := map[string][2]string{
		"first_name":    {profile.FirstName, "Camille"},
		"last_name":     {profile.LastName, "Roux"},
		"email":         {profile.Email, "camille.roux@example.com"},
		"username":      {profile.Username, "bluecat512"},
		"gender":        {profile.Gender, "female"},
		"date_of_birth": {profile.DateOfBirth, "1990-03-14T08:21:09.521Z"},
		"street_number": {profile.StreetNumber, "4521"},
		"street_name":   {profile.StreetName, "Rue de la Paix"},
		"city":          {profile.City, "Paris"},
		"postcode":      {profile.Postcode, "75002"},
		"latitude":      {profile.Latitude, "48.8686"},
		"thumbnail":     {profile.PictureThumbnail, "https://randomuser.me/api/portraits/thumb/women/1.jpg"},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s: expected %q, got %q", field, c[1], c[0])
		}
	}
}

// TestFetchOneStringPostcode проверяет, что строковый postcode сохраняется как есть
func TestFetchOneStringPostcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"gender":"male","location":{"postcode":"SW1A 1AA","street":{"number":"12","name":"High St"}}}]}`))
	}))
	defer srv.Close()

	profile, err := newTestClient(srv.URL).FetchOne(context.Background())
	if err != nil {
		t.Fatalf("FetchOne returned error: %v", err)
	}
	if profile.Postcode != "SW1A 1AA" {
		t.Errorf("Expected postcode 'SW1A 1AA', got %q", profile.Postcode)
	}
	if profile.StreetNumber != "12" {
		t.Errorf("Expected street number '12', got %q", profile.StreetNumber)
	}
}

// TestFetchOneErrors проверяет классификацию ошибок
func TestFetchOneErrors(t *testing.T) {
	t.Run("BadStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("maintenance"))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchOne(context.Background())
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("Expected StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", statusErr.StatusCode)
		}
		if statusErr.Body != "maintenance" {
			t.Errorf("Expected body 'maintenance', got %q", statusErr.Body)
		}
		if !errors.Is(err, apperrors.ErrUpstreamFetch) {
			t.Error("Expected error to match ErrUpstreamFetch")
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": [`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchOne(context.Background())
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("Expected TransportError, got %v", err)
		}
	})

	t.Run("EmptyResults", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": []}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).FetchOne(context.Background())
		if !errors.Is(err, apperrors.ErrUpstreamFetch) {
			t.Fatalf("Expected upstream fetch error, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(samplePayload))
		}))
		defer srv.Close()

		client := NewClient(config.UpstreamConfig{URL: srv.URL, Timeout: 50 * time.Millisecond}, zap.NewNop())
		_, err := client.FetchOne(context.Background())
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("Expected TransportError on timeout, got %v", err)
		}
	})
}
