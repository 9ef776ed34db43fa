package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 1, ParsePage("2.5"))
	assert.Equal(t, 3, ParsePage("3"))
	assert.Equal(t, -4, ParsePage("-4"))
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		name      string
		total     int64
		requested int
		number    int
		numPages  int
		prev      bool
		next      bool
	}{
		{"empty listing has one page", 0, 1, 1, 1, false, false},
		{"first page", 25, 1, 1, 3, false, true},
		{"middle page", 25, 2, 2, 3, true, true},
		{"last page", 25, 3, 3, 3, true, false},
		{"beyond last clamps", 25, 99, 3, 3, true, false},
		{"zero clamps to first", 25, 0, 1, 3, false, true},
		{"negative clamps to first", 25, -2, 1, 3, false, true},
		{"exact multiple", 20, 2, 2, 2, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Paginate(tc.total, tc.requested, 10)
			assert.Equal(t, tc.number, p.Number)
			assert.Equal(t, tc.numPages, p.NumPages)
			assert.Equal(t, tc.prev, p.HasPrevious)
			assert.Equal(t, tc.next, p.HasNext)
			assert.Equal(t, tc.total, p.Total)
		})
	}
}

func TestPaginate_NeighbourNumbersAndOffset(t *testing.T) {
	p := Paginate(35, 3, 10)
	assert.Equal(t, 2, p.PreviousNumber)
	assert.Equal(t, 4, p.NextNumber)
	assert.Equal(t, 20, p.Offset())
	assert.True(t, p.HasOtherPages())

	single := Paginate(3, 1, 10)
	assert.False(t, single.HasOtherPages())
	assert.Zero(t, single.Offset())
}
