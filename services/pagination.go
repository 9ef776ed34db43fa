package services

import "strconv"

// Page describes one page of a listing.
type Page struct {
	Number         int
	NumPages       int
	PerPage        int
	Total          int64
	HasPrevious    bool
	HasNext        bool
	PreviousNumber int
	NextNumber     int
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// HasOtherPages reports whether navigation should be shown.
func (p Page) HasOtherPages() bool {
	return p.NumPages > 1
}

// ParsePage reads the ?page= value. Anything that is not an integer means page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}

// Paginate clamps requested into [1, last page]. An empty listing still has one page.
func Paginate(total int64, requested, perPage int) Page {
	if perPage < 1 {
		perPage = 1
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}
	number := requested
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	p := Page{
		Number:      number,
		NumPages:    numPages,
		PerPage:     perPage,
		Total:       total,
		HasPrevious: number > 1,
		HasNext:     number < numPages,
	}
	if p.HasPrevious {
		p.PreviousNumber = number - 1
	}
	if p.HasNext {
		p.NextNumber = number + 1
	}
	return p
}
