package pagination

import (
	"errors"
	"testing"
)

func TestNumPages(t *testing.T) {
	tests := []struct {
		count   int64
		perPage int
		want    int
	}{
		{0, 5, 1},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{23, 5, 5},
	}
	for _, tt := range tests {
		if got := New(tt.count, tt.perPage).NumPages(); got != tt.want {
			t.Errorf("New(%d, %d).NumPages() = %d, want %d", tt.count, tt.perPage, got, tt.want)
		}
	}
}

func TestValidatePage(t *testing.T) {
	p := New(12, 5)

	tests := []struct {
		raw     string
		want    int
		wantErr error
	}{
		{"", 1, nil},
		{"2", 2, nil},
		{"last", 3, nil},
		{"4", 0, ErrEmptyPage},
		{"0", 0, ErrEmptyPage},
		{"two", 0, ErrPageNotAnInteger},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			pg, err := p.ValidatePage(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidatePage(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
			if err == nil && pg.Number != tt.want {
				t.Errorf("ValidatePage(%q) = page %d, want %d", tt.raw, pg.Number, tt.want)
			}
		})
	}
}

func TestLenientPage(t *testing.T) {
	p := New(12, 5)
	tests := map[string]int{
		"":    1,
		"abc": 1,
		"0":   3,
		"-3":  3,
		"1":   1,
		"2":   2,
		"99":  3,
	}
	for raw, want := range tests {
		if got := p.LenientPage(raw).Number; got != want {
			t.Errorf("LenientPage(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestPageIndexes(t *testing.T) {
	pg, err := New(12, 5).Page(3)
	if err != nil {
		t.Fatal(err)
	}
	if pg.Offset() != 10 || pg.Limit() != 5 {
		t.Errorf("unexpected offset/limit %d/%d", pg.Offset(), pg.Limit())
	}
	if pg.StartIndex() != 11 || pg.EndIndex() != 12 {
		t.Errorf("unexpected indexes %d-%d", pg.StartIndex(), pg.EndIndex())
	}

	empty, _ := New(0, 5).Page(1)
	if empty.StartIndex() != 0 || empty.EndIndex() != 0 || empty.HasOtherPages() {
		t.Error("empty first page should have no items and no other pages")
	}
}

func TestQueryLinks(t *testing.T) {
	p := New(30, 5) // six pages

	tests := []struct {
		number int
		want   Links
	}{
		{1, Links{Next: "?page=2", Last: "?page=6"}},
		{2, Links{First: "?page=1", Next: "?page=3", Last: "?page=6"}},
		{3, Links{First: "?page=1", Previous: "?page=2", Next: "?page=4", Last: "?page=6"}},
		{5, Links{First: "?page=1", Previous: "?page=4", Last: "?page=6"}},
		{6, Links{First: "?page=1", Previous: "?page=5"}},
	}
	for _, tt := range tests {
		pg, err := p.Page(tt.number)
		if err != nil {
			t.Fatal(err)
		}
		got := QueryLinks(pg)
		tt.want.Number = tt.number
		tt.want.NumPages = 6
		if got != tt.want {
			t.Errorf("page %d: got %+v want %+v", tt.number, got, tt.want)
		}
	}

	single, _ := New(3, 5).Page(1)
	if QueryLinks(single).Any() {
		t.Error("a single page needs no links")
	}
}

func TestPathLinks(t *testing.T) {
	pg, _ := New(12, 5).Page(2)
	links := PathLinks(pg, "/tag/page/%d/")
	if links.Previous != "/tag/page/1/" || links.Next != "/tag/page/3/" {
		t.Errorf("unexpected links %+v", links)
	}
	if links.First != "" || links.Last != "" {
		t.Error("path links only carry previous and next")
	}
}
