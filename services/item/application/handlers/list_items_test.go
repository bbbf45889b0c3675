package handlers

import (
	"net/url"
	"testing"
)

func TestPositiveParam(t *testing.T) {
	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", 0, true},
		{"page=3", 3, true},
		{"page=1", 1, true},
		{"page=0", 0, false},
		{"page=-2", 0, false},
		{"page=two", 0, false},
		{"page=1.5", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := positiveParam(q, "page")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("positiveParam(%q) = (%d, %v), want (%d, %v)", tt.query, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPageLink(t *testing.T) {
	u, _ := url.Parse("http://localhost:8080/api/items?page=2&page_size=5&foo=bar")
	got := *pageLink(u, 3, 5)
	if want := "/api/items?foo=bar&page=3&page_size=5"; got != want {
		t.Errorf("pageLink = %q, want %q", got, want)
	}
}
