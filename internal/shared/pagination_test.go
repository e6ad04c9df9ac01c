package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondly/bondly/internal/platform/httpx"
)

func TestNewMeta(t *testing.T) {
	meta := NewMeta(2, 10, 35)
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 35, TotalPages: 4, HasNext: true, HasPrev: true}, meta)

	empty := NewMeta(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}

func TestParsePageRequestDefaults(t *testing.T) {
	req, err := ParsePageRequest(url.Values{}, Limits{Default: 25, Min: 5, Max: 50})
	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 1, Limit: 25}, req)
	assert.Equal(t, 0, req.Offset())
}

func TestParsePageRequestBounds(t *testing.T) {
	limits := Limits{Default: 20, Min: 1, Max: 100}
	cases := []url.Values{
		{"page": {"0"}},
		{"page": {"-3"}},
		{"page": {"abc"}},
		{"limit": {"0"}},
		{"limit": {"101"}},
		{"limit": {"ten"}},
	}
	for _, values := range cases {
		_, err := ParsePageRequest(values, limits)
		assert.ErrorIs(t, err, httpx.ErrBadRequest, "values %v", values)
	}

	req, err := ParsePageRequest(url.Values{"page": {"3"}, "limit": {"100"}}, limits)
	require.NoError(t, err)
	assert.Equal(t, 200, req.Offset())
}

func TestPageRequestCheck(t *testing.T) {
	req, err := PageRequest{}.Check(DefaultLimits)
	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 1, Limit: 20}, req)

	_, err = PageRequest{Page: -1}.Check(DefaultLimits)
	assert.ErrorIs(t, err, httpx.ErrBadRequest)

	_, err = PageRequest{Limit: 500}.Check(DefaultLimits)
	assert.ErrorIs(t, err, httpx.ErrBadRequest)
}

func TestNewPageNeverNil(t *testing.T) {
	page := NewPage[string](nil, PageRequest{Page: 1, Limit: 10}, 0)
	assert.NotNil(t, page.Data)
}
