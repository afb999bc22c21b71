package paginate

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_Defaults(t *testing.T) {
	p := Parse(url.Values{})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultLimit, p.Limit)
}

func TestParse_ClampsLimit(t *testing.T) {
	p := Parse(url.Values{"limit": []string{"1000"}})
	assert.Equal(t, maxLimit, p.Limit)
}

func TestParse_IgnoresGarbage(t *testing.T) {
	p := Parse(url.Values{"page": []string{"-3"}, "limit": []string{"abc"}})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultLimit, p.Limit)
}

func TestDescending(t *testing.T) {
	field, desc := Params{Sort: "-created"}.Descending()
	assert.Equal(t, "created", field)
	assert.True(t, desc)

	field, desc = Params{Sort: "title"}.Descending()
	assert.Equal(t, "title", field)
	assert.False(t, desc)
}

func TestSlice_MiddlePage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page, meta := Slice(items, Params{Page: 2, Limit: 2})
	assert.Equal(t, []int{3, 4}, page)
	assert.Equal(t, 5, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
}

func TestSlice_PastEnd(t *testing.T) {
	page, meta := Slice([]int{1, 2}, Params{Page: 5, Limit: 10})
	assert.Empty(t, page)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, 1, meta.TotalPages)
}
