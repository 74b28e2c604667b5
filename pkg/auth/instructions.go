package auth

import (
	"fmt"
	"io"
	"strings"
)

const appGardenURL = "https://www.flickr.com/services/apps/create/apply/"

// PrintAPIKeyGuide writes the steps for obtaining a Flickr API key.
func PrintAPIKeyGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "FLICKR API KEY")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flickrgeo calls flickr.photos.search and flickr.photos.geo.getLocation,")
	fmt.Fprintln(w, "both of which only need a non-commercial API key.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Sign in to Flickr and open", appGardenURL)
	fmt.Fprintln(w, "  2. Apply for a non-commercial key and describe the app")
	fmt.Fprintln(w, "  3. Copy the Key and the Secret shown on the confirmation page")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Keys can also be supplied through %s and %s.\n", EnvAPIKey, EnvSecret)
	fmt.Fprintln(w, rule)
}
