package model

import "strings"

// UploadsPath is the URL path under which stored images are served.
const UploadsPath = "/uploads/"

// ImageURL joins origin and a stored image filename into an absolute URL.
// An empty filename yields an empty URL.
func ImageURL(origin, filename string) string {
	if filename == "" {
		return ""
	}
	return strings.TrimRight(origin, "/") + UploadsPath + filename
}

// ResolveImage fills ImageURL from Image for the given origin.
func (a *Announcement) ResolveImage(origin string) {
	a.ImageURL = ImageURL(origin, a.Image)
}

// ResolveImage fills ImageURL from Image for the given origin.
func (s *School) ResolveImage(origin string) {
	s.ImageURL = ImageURL(origin, s.Image)
}
