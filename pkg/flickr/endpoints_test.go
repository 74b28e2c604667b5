package flickr

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	params := url.Values{}
	params.Set("photo_id", "42")

	raw := BuildURL(BaseURL, "key", MethodGetLocation, params)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "api.flickr.com", parsed.Host)
	assert.Equal(t, "/services/rest/", parsed.Path)
	q := parsed.Query()
	assert.Equal(t, MethodGetLocation, q.Get("method"))
	assert.Equal(t, "key", q.Get("api_key"))
	assert.Equal(t, "42", q.Get("photo_id"))
	assert.Equal(t, "1", q.Get("nojsoncallback"))
	assert.Empty(t, params.Get("method"), "caller's params must not be modified")
}

func TestSearchParamsValues(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	p := SearchParams{
		MinTaken: time.Date(2015, 6, 1, 8, 0, 0, 0, loc),
		MaxTaken: time.Date(2015, 6, 1, 9, 30, 15, 0, loc),
	}

	v := p.Values()
	assert.Equal(t, "2015-06-01 08:00:00", v.Get("min_taken_date"))
	assert.Equal(t, "2015-06-01 09:30:15", v.Get("max_taken_date"))
	assert.Equal(t, "200", v.Get("per_page"))
	assert.Equal(t, "1", v.Get("page"))
	assert.Empty(t, v.Get("place_id"))
	assert.Empty(t, v.Get("accuracy"))

	p.PerPage = 1000
	assert.Equal(t, "500", p.Values().Get("per_page"))
}

func TestPhotoURL(t *testing.T) {
	assert.Equal(t, "https://farm5.staticflickr.com/4321/987_abcdef.jpg", PhotoURL(5, "4321", "987", "abcdef"))
}

func TestFlexDecoding(t *testing.T) {
	var result SearchResult
	require.NoError(t, json.Unmarshal([]byte(`{"page":"1","pages":45,"perpage":200,"total":"9000","photo":[]}`), &result))
	assert.Equal(t, FlexInt(9000), result.Total)
	assert.Equal(t, FlexInt(45), result.Pages)

	var loc Location
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":-33.5,"longitude":"151.25","accuracy":null}`), &loc))
	assert.Equal(t, FlexFloat(-33.5), loc.Latitude)
	assert.Equal(t, FlexFloat(151.25), loc.Longitude)
	assert.Equal(t, FlexInt(0), loc.Accuracy)

	var n FlexInt
	assert.Error(t, json.Unmarshal([]byte(`"many"`), &n))
}
