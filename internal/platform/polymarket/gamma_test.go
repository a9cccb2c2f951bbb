package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wxarb/internal/domain"
)

const gammaEventJSON = `[
  {
    "id": "evt-1",
    "title": "Highest temperature in NYC on August 31?",
    "slug": "highest-temperature-in-nyc-on-august-31",
    "closed": false,
    "markets": [
      {
        "id": "m2",
        "groupItemTitle": "44-46°F",
        "conditionId": "cond-2",
        "clobTokenIds": "[\"tok-44-yes\",\"tok-44-no\"]",
        "acceptingOrders": true,
        "closed": false,
        "endDate": "2026-08-31T22:00:00Z"
      },
      {
        "id": "m1",
        "groupItemTitle": "40-41°F",
        "conditionId": "cond-1",
        "clobTokenIds": "[\"tok-40-yes\",\"tok-40-no\"]",
        "acceptingOrders": "true",
        "closed": false,
        "endDate": "2026-08-31T22:00:00Z"
      },
      {
        "id": "m3",
        "groupItemTitle": "Will it rain?",
        "conditionId": "cond-3",
        "clobTokenIds": "[\"tok-x\"]",
        "acceptingOrders": true,
        "closed": false,
        "endDate": "2026-08-31T22:00:00Z"
      },
      {
        "id": "m4",
        "groupItemTitle": "47-48°F",
        "conditionId": "cond-4",
        "clobTokenIds": "[\"tok-47-yes\",\"tok-47-no\"]",
        "acceptingOrders": true,
        "closed": true,
        "endDate": "2026-08-31T22:00:00Z"
      }
    ]
  }
]`

func TestTemperatureBrackets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("slug"); got != "highest-temperature-in-nyc-on-august-31" {
			t.Errorf("slug = %q", got)
		}
		w.Write([]byte(gammaEventJSON))
	}))
	defer server.Close()

	g := NewGammaClient(server.URL)
	brackets, err := g.TemperatureBrackets(context.Background(), "highest-temperature-in-nyc-on-august-31")
	if err != nil {
		t.Fatalf("TemperatureBrackets: %v", err)
	}

	// The unparseable market is skipped; the rest come back sorted by lower
	// bound.
	if len(brackets) != 3 {
		t.Fatalf("got %d brackets, want 3", len(brackets))
	}
	wantLabels := []string{"40-41°F", "44-46°F", "47-48°F"}
	for i, b := range brackets {
		if b.Label != wantLabels[i] {
			t.Errorf("bracket[%d] = %q, want %q", i, b.Label, wantLabels[i])
		}
	}

	b := brackets[1]
	if b.YesTokenID != "tok-44-yes" {
		t.Errorf("yes token = %q (first CLOB token is the Yes side)", b.YesTokenID)
	}
	if b.ConditionID != "cond-2" {
		t.Errorf("condition id = %q", b.ConditionID)
	}
	if !b.AcceptingOrders {
		t.Error("open market not accepting orders")
	}
	if b.CloseTime.IsZero() {
		t.Error("close time not parsed")
	}

	// Market m1 sends acceptingOrders as a string; m4 is closed.
	if !brackets[0].AcceptingOrders {
		t.Error("string-typed acceptingOrders not parsed")
	}
	if brackets[2].AcceptingOrders {
		t.Error("closed market still accepting orders")
	}
}

func TestTemperatureBracketsNoEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := NewGammaClient(server.URL)
	brackets, err := g.TemperatureBrackets(context.Background(), "no-such-event")
	if err != nil {
		t.Fatalf("TemperatureBrackets: %v", err)
	}
	if len(brackets) != 0 {
		t.Errorf("got %d brackets for a missing event", len(brackets))
	}
}

func TestTemperatureBracketsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := NewGammaClient(server.URL)
	if _, err := g.TemperatureBrackets(context.Background(), "slug"); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestToBracketMissingTokens(t *testing.T) {
	m := APIMarket{
		ID:             "m1",
		GroupItemTitle: "40-41°F",
		ClobTokenIDs:   "not json",
	}
	if _, err := m.ToBracket(); !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("ToBracket = %v, want ErrProtocol", err)
	}
}
