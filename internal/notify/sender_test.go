package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/your-org/facewatch/internal/config"
)

func TestHTTPSenderDeliversMultipart(t *testing.T) {
	var gotForm map[string]string
	var gotImage []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotForm = map[string]string{}
		for k := range r.MultipartForm.Value {
			gotForm[k] = r.FormValue(k)
		}
		if f, _, err := r.FormFile("live_image"); err == nil {
			gotImage, _ = io.ReadAll(f)
			f.Close()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender(config.AlertConfig{
		URL:       srv.URL,
		Recipient: "warden@example.edu",
		Timeout:   time.Second,
	})

	err := s.Send(context.Background(), Alert{
		Name:       "Asha",
		IdentityID: "S1",
		Branch:     "CSE",
		Timestamp:  "10/03/2026 09:00:01",
		PhotoURL:   "http://img/asha.jpg",
		Image:      []byte("jpeg-bytes"),
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := map[string]string{
		"name":        "Asha",
		"identity_id": "S1",
		"branch":      "CSE",
		"timestamp":   "10/03/2026 09:00:01",
		"photo_url":   "http://img/asha.jpg",
		"to_email":    "warden@example.edu",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%s] = %q; want %q", k, gotForm[k], v)
		}
	}
	if string(gotImage) != "jpeg-bytes" {
		t.Errorf("live_image = %q; want raw frame bytes", gotImage)
	}
}

func TestHTTPSenderNon200IsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted) // even 2xx below/above 200 is not success
	}))
	defer srv.Close()

	s := NewHTTPSender(config.AlertConfig{URL: srv.URL, Recipient: "x", Timeout: time.Second})
	if err := s.Send(context.Background(), Alert{IdentityID: "S1"}); err == nil {
		t.Fatal("Send succeeded on non-200 status; want error")
	}
}

func TestHTTPSenderNetworkError(t *testing.T) {
	s := NewHTTPSender(config.AlertConfig{
		URL:       "http://127.0.0.1:1", // nothing listens here
		Recipient: "x",
		Timeout:   500 * time.Millisecond,
	})
	if err := s.Send(context.Background(), Alert{IdentityID: "S1"}); err == nil {
		t.Fatal("Send succeeded against closed port; want error")
	}
}
