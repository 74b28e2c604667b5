package flickr

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// BaseURL is the Flickr REST endpoint
	BaseURL = "https://api.flickr.com/services/rest/"

	// MethodSearch lists photos matching a filter
	MethodSearch = "flickr.photos.search"

	// MethodGetLocation returns a photo's geotag
	MethodGetLocation = "flickr.photos.geo.getLocation"

	// MethodEcho echoes its arguments; used to check the API key
	MethodEcho = "flickr.test.echo"

	// TakenDateLayout is the MySQL datetime form accepted by min/max_taken_date
	TakenDateLayout = "2006-01-02 15:04:05"

	// DefaultPerPage is the page size used when none is given
	DefaultPerPage = 200

	// MaxPerPage is the largest page size the API accepts
	MaxPerPage = 500
)

// Flickr error codes that are common to every method
const (
	CodeInvalidKey         = 100
	CodeLoginFailed        = 98
	CodePermissionDenied   = 99
	CodeServiceUnavailable = 105
	CodePhotoNotFound      = 1
	CodePhotoHasNoLocation = 2
)

// SearchParams bounds a flickr.photos.search call. Both taken-date bounds
// are inclusive.
type SearchParams struct {
	MinTaken time.Time
	MaxTaken time.Time
	PlaceID  string
	Accuracy int
	PerPage  int
	Page     int
}

// Values encodes the parameters for the query string
func (p SearchParams) Values() url.Values {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	} else if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := p.Page
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("min_taken_date", FormatTakenDate(p.MinTaken))
	params.Set("max_taken_date", FormatTakenDate(p.MaxTaken))
	if p.PlaceID != "" {
		params.Set("place_id", p.PlaceID)
	}
	if p.Accuracy > 0 {
		params.Set("accuracy", strconv.Itoa(p.Accuracy))
	}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	return params
}

// FormatTakenDate renders t in its own location using TakenDateLayout
func FormatTakenDate(t time.Time) string {
	return t.Format(TakenDateLayout)
}

// BuildURL constructs a REST call URL for method with the given parameters
func BuildURL(base, apiKey, method string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("method", method)
	q.Set("api_key", apiKey)
	q.Set("format", "json")
	q.Set("nojsoncallback", "1")
	return fmt.Sprintf("%s?%s", base, q.Encode())
}

// PhotoURL constructs the static image URL of a photo
func PhotoURL(farm int, server, id, secret string) string {
	return fmt.Sprintf("https://farm%d.staticflickr.com/%s/%s_%s.jpg", farm, server, id, secret)
}
