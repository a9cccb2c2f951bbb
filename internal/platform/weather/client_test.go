package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wxarb/internal/domain"
)

func TestDailyHigh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("daily") != "temperature_2m_max" {
			t.Errorf("daily = %q", q.Get("daily"))
		}
		if q.Get("temperature_unit") != "fahrenheit" {
			t.Errorf("temperature_unit = %q", q.Get("temperature_unit"))
		}
		if q.Get("timezone") != "America/New_York" {
			t.Errorf("timezone = %q", q.Get("timezone"))
		}
		if q.Get("start_date") != "2026-08-31" || q.Get("end_date") != "2026-08-31" {
			t.Errorf("date range = %q..%q", q.Get("start_date"), q.Get("end_date"))
		}
		if q.Get("latitude") != "40.7800" || q.Get("longitude") != "-73.9700" {
			t.Errorf("coords = %q,%q", q.Get("latitude"), q.Get("longitude"))
		}
		w.Write([]byte(`{"daily":{"time":["2026-08-31"],"temperature_2m_max":[87.3]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	date := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	f, err := c.DailyHigh(context.Background(), 40.78, -73.97, "America/New_York", date)
	if err != nil {
		t.Fatalf("DailyHigh: %v", err)
	}
	if f.HighF != 87.3 {
		t.Errorf("high = %v, want 87.3", f.HighF)
	}
	if f.FetchedAt.IsZero() {
		t.Error("fetched-at not set")
	}
}

func TestDailyHighEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":{"time":[],"temperature_2m_max":[]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.DailyHigh(context.Background(), 40.78, -73.97, "UTC", time.Now())
	if !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}

func TestDailyHighHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad coords", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.DailyHigh(context.Background(), 999, 999, "UTC", time.Now()); err == nil {
		t.Fatal("DailyHigh swallowed an HTTP error")
	}
}
