package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=5&offset=10", 5, 10},
		{"limit capped", "limit=500", MaxLimit, 0},
		{"garbage ignored", "limit=abc&offset=-3", DefaultLimit, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := paramsFor(t, tc.query)
			if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
				t.Fatalf("params = %+v, want limit %d offset %d", p, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	cases := []struct {
		name      string
		p         Params
		total     int
		wantStart int
		wantEnd   int
	}{
		{"full page", Params{Limit: 10, Offset: 0}, 25, 0, 10},
		{"last partial page", Params{Limit: 10, Offset: 20}, 25, 20, 25},
		{"offset beyond total", Params{Limit: 10, Offset: 100}, 25, 25, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := tc.p.Bounds(tc.total)
			if start != tc.wantStart || end != tc.wantEnd {
				t.Fatalf("Bounds(%d) = (%d, %d), want (%d, %d)", tc.total, start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a"}, 30, 10, 10)
	if !resp.HasMore {
		t.Error("HasMore should be true at offset 10 of 30")
	}
	resp = NewResponse([]string{"a"}, 30, 10, 20)
	if resp.HasMore {
		t.Error("HasMore should be false on the last page")
	}
}
