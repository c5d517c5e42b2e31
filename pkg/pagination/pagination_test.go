package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/wishlist", nil))

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_CustomValues(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/wishlist?page=3&per_page=5", nil))

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 5, p.PerPage)
	assert.Equal(t, 10, p.Offset)
}

func TestFromRequest_InvalidValuesFallBack(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/x?page=-1&per_page=500", nil))

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	first := Paginate(all, Params{Page: 1, PerPage: 2, Offset: 0})
	assert.Equal(t, []int{1, 2}, first.Items)
	assert.Equal(t, 5, first.TotalCount)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)

	last := Paginate(all, Params{Page: 3, PerPage: 2, Offset: 4})
	assert.Equal(t, []int{5}, last.Items)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrev)
}

func TestPaginate_PastEndAndEmpty(t *testing.T) {
	past := Paginate([]int{1}, Params{Page: 4, PerPage: 2, Offset: 6})
	assert.Empty(t, past.Items)
	assert.NotNil(t, past.Items)

	empty := Paginate([]string(nil), DefaultParams())
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}

func TestPaginate_DoesNotAlias(t *testing.T) {
	all := []int{1, 2, 3}
	res := Paginate(all, Params{Page: 1, PerPage: 2})
	res.Items[0] = 99
	assert.Equal(t, 1, all[0])
}
