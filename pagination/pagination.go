// Package pagination splits counted result sets into numbered pages and
// computes the navigation links shown under list pages.
package pagination

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrPageNotAnInteger = errors.New("page number is not an integer")
	ErrEmptyPage        = errors.New("page contains no results")
)

type Paginator struct {
	Count   int64
	PerPage int
}

func New(count int64, perPage int) Paginator {
	if perPage < 1 {
		perPage = 1
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages is never below one: an empty result set still has a first page.
func (p Paginator) NumPages() int {
	if p.Count <= 0 {
		return 1
	}
	return int((p.Count + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p Paginator) Page(number int) (Page, error) {
	if number < 1 || number > p.NumPages() {
		return Page{}, ErrEmptyPage
	}
	return Page{Number: number, Paginator: p}, nil
}

// ValidatePage resolves a raw page parameter strictly: a blank value means
// the first page and "last" means the last page.
func (p Paginator) ValidatePage(raw string) (Page, error) {
	switch raw {
	case "":
		return p.Page(1)
	case "last":
		return p.Page(p.NumPages())
	}
	number, err := strconv.Atoi(raw)
	if err != nil {
		return Page{}, ErrPageNotAnInteger
	}
	return p.Page(number)
}

// LenientPage never fails: garbage yields the first page and numbers out of
// range, zero and negatives included, yield the last one.
func (p Paginator) LenientPage(raw string) Page {
	number, err := strconv.Atoi(raw)
	if err != nil {
		return Page{Number: 1, Paginator: p}
	}
	if last := p.NumPages(); number < 1 || number > last {
		number = last
	}
	return Page{Number: number, Paginator: p}
}

type Page struct {
	Number    int
	Paginator Paginator
}

func (pg Page) HasNext() bool       { return pg.Number < pg.Paginator.NumPages() }
func (pg Page) HasPrevious() bool   { return pg.Number > 1 }
func (pg Page) HasOtherPages() bool { return pg.HasNext() || pg.HasPrevious() }
func (pg Page) NextPageNumber() int { return pg.Number + 1 }
func (pg Page) PreviousPageNumber() int {
	return pg.Number - 1
}

// Offset and Limit are ready to hand to the query layer.
func (pg Page) Offset() int { return (pg.Number - 1) * pg.Paginator.PerPage }
func (pg Page) Limit() int  { return pg.Paginator.PerPage }

// StartIndex is the 1-based index of the first item on the page, 0 when empty.
func (pg Page) StartIndex() int64 {
	if pg.Paginator.Count == 0 {
		return 0
	}
	return int64(pg.Offset()) + 1
}

func (pg Page) EndIndex() int64 {
	end := int64(pg.Number * pg.Paginator.PerPage)
	if end > pg.Paginator.Count {
		return pg.Paginator.Count
	}
	return end
}

// Links holds the URLs of the navigation controls; an empty string hides
// the control.
type Links struct {
	First    string
	Previous string
	Next     string
	Last     string
	Number   int
	NumPages int
}

func (l Links) Any() bool {
	return l.First != "" || l.Previous != "" || l.Next != "" || l.Last != ""
}

func queryURL(number int) string {
	return fmt.Sprintf("?page=%d", number)
}

// QueryLinks builds ?page=N links. Previous and next are suppressed when
// they would duplicate the first and last links.
func QueryLinks(pg Page) Links {
	last := pg.Paginator.NumPages()
	links := Links{Number: pg.Number, NumPages: last}
	if pg.Number > 1 {
		links.First = queryURL(1)
	}
	if pg.HasPrevious() && pg.Number > 2 {
		links.Previous = queryURL(pg.PreviousPageNumber())
	}
	if pg.HasNext() && pg.Number < last-1 {
		links.Next = queryURL(pg.NextPageNumber())
	}
	if pg.Number < last {
		links.Last = queryURL(last)
	}
	return links
}

// PathLinks builds previous/next links from a path pattern such as
// "/tag/page/%d/".
func PathLinks(pg Page, pattern string) Links {
	links := Links{Number: pg.Number, NumPages: pg.Paginator.NumPages()}
	if pg.HasPrevious() {
		links.Previous = fmt.Sprintf(pattern, pg.PreviousPageNumber())
	}
	if pg.HasNext() {
		links.Next = fmt.Sprintf(pattern, pg.NextPageNumber())
	}
	return links
}
