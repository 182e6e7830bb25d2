package repositories

import "testing"

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		name      string
		in        PageRequest
		wantPage  int
		wantLimit int
	}{
		{"zero value", PageRequest{}, 1, 10},
		{"negative values", PageRequest{Page: -3, Limit: -1}, 1, 10},
		{"within bounds", PageRequest{Page: 4, Limit: 25}, 4, 25},
		{"limit capped", PageRequest{Page: 1, Limit: 5000}, 1, 100},
	}

	for _, tc := range cases {
		got := tc.in.Normalize()
		if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
			t.Fatalf("%s: got %+v, want page=%d limit=%d", tc.name, got, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestPageInfo(t *testing.T) {
	info := pageInfo(PageRequest{Page: 1, Limit: 10}, 12)
	if info.TotalPages != 2 || !info.HasNext {
		t.Fatalf("unexpected page info %+v", info)
	}

	info = pageInfo(PageRequest{Page: 2, Limit: 10}, 12)
	if info.HasNext {
		t.Fatalf("expected no next page, got %+v", info)
	}

	info = pageInfo(PageRequest{Page: 1, Limit: 10}, 0)
	if info.TotalPages != 0 || info.HasNext {
		t.Fatalf("expected an empty result shape, got %+v", info)
	}
}
