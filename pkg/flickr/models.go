package flickr

import (
	"strconv"
	"strings"
)

// FlexInt decodes a JSON number or a numeric string. Flickr reports
// photos.total as a string and photos.pages as a number, and has swapped
// the two between API revisions.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*n = FlexInt(v)
	return nil
}

// FlexFloat decodes a JSON number or a numeric string
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// envelope holds the status fields present on every response
type envelope struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SearchResponse is the body of flickr.photos.search
type SearchResponse struct {
	Photos SearchResult `json:"photos"`
	Stat   string       `json:"stat"`
}

// SearchResult is one page of search results
type SearchResult struct {
	Page    FlexInt `json:"page"`
	Pages   FlexInt `json:"pages"`
	PerPage FlexInt `json:"perpage"`
	Total   FlexInt `json:"total"`
	Photos  []Photo `json:"photo"`
}

// Photo is a search hit. The fields are enough to build its image URL.
type Photo struct {
	ID     string  `json:"id"`
	Owner  string  `json:"owner"`
	Secret string  `json:"secret"`
	Server string  `json:"server"`
	Farm   FlexInt `json:"farm"`
	Title  string  `json:"title"`
}

// URL returns the photo's static image URL
func (p Photo) URL() string {
	return PhotoURL(int(p.Farm), p.Server, p.ID, p.Secret)
}

// LocationResponse is the body of flickr.photos.geo.getLocation
type LocationResponse struct {
	Photo struct {
		ID       string   `json:"id"`
		Location Location `json:"location"`
	} `json:"photo"`
	Stat string `json:"stat"`
}

// Location is a photo's geotag
type Location struct {
	Latitude  FlexFloat `json:"latitude"`
	Longitude FlexFloat `json:"longitude"`
	Accuracy  FlexInt   `json:"accuracy"`
}

type echoResponse struct {
	Method struct {
		Content string `json:"_content"`
	} `json:"method"`
	Stat string `json:"stat"`
}
