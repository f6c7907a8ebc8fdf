package savedsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaveRequestValidation(t *testing.T) {
	min, max := int64(100), int64(50)
	okMin, okMax := int64(50), int64(100)
	beds := 2

	cases := []struct {
		name    string
		req     saveRequest
		wantMsg string
	}{
		{
			name:    "missing name",
			req:     saveRequest{Params: SearchParams{City: "Cairo"}},
			wantMsg: "name is required",
		},
		{
			name:    "blank name",
			req:     saveRequest{Name: "  ", Params: SearchParams{City: "Cairo"}},
			wantMsg: "name is required",
		},
		{
			name:    "no filters",
			req:     saveRequest{Name: "empty"},
			wantMsg: "at least one search filter is required",
		},
		{
			name:    "inverted price range",
			req:     saveRequest{Name: "bad range", Params: SearchParams{MinPrice: &min, MaxPrice: &max}},
			wantMsg: "min_price cannot exceed max_price",
		},
		{
			name: "valid full filter",
			req: saveRequest{Name: "cairo 2br", Params: SearchParams{
				Query: "garden", City: "Cairo", MinPrice: &okMin, MaxPrice: &okMax, Bedrooms: &beds,
			}},
		},
		{
			name: "single filter is enough",
			req:  saveRequest{Name: "by city", Params: SearchParams{City: "Alexandria"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantMsg, tc.req.validate())
		})
	}
}
