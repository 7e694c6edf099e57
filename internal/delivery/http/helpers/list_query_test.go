package helpers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhub/internal/domain"
)

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    ListQuery
		wantErr bool
	}{
		{"defaults", "", ListQuery{Page: domain.PaginationParams{Page: 1, PageSize: 20}}, false},
		{"read second page", "checked=true&page=2&page_size=5", ListQuery{Checked: true, Page: domain.PaginationParams{Page: 2, PageSize: 5}}, false},
		{"size capped", "page_size=500", ListQuery{Page: domain.PaginationParams{Page: 1, PageSize: 100}}, false},
		{"junk page falls back", "page=zero&page_size=-3", ListQuery{Page: domain.PaginationParams{Page: 1, PageSize: 20}}, false},
		{"bad checked", "checked=maybe", ListQuery{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := ParseListQuery(q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChecked_Default(t *testing.T) {
	v, err := ParseChecked(url.Values{}, true)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestPageMetaOf(t *testing.T) {
	meta := PageMetaOf(&domain.PaginatedResult[int]{Total: 11, Page: 2, PageSize: 5})
	assert.Equal(t, PageMeta{Page: 2, PageSize: 5, Total: 11, TotalPages: 3, HasNext: true}, meta)

	meta = PageMetaOf(&domain.PaginatedResult[int]{Total: 0, Page: 1, PageSize: 0})
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)
}
