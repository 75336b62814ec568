package utils

import (
	"net/url"
	"strings"
)

// EncodeImageURL percent-encodes raw spaces that some screenshot hosts leave
// in the URLs they serve. Already-encoded characters pass through untouched.
func EncodeImageURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	// String() re-encodes the path; the query is kept verbatim, so spaces
	// there are replaced by hand.
	u.RawQuery = strings.ReplaceAll(u.RawQuery, " ", "%20")
	return u.String(), nil
}
