package storage

import "net/url"

// OriginOf returns the cache partition key for a URL: scheme://host, with
// the port kept when present. Unparseable input or input without a scheme
// falls back to the raw string so every URL lands in some partition.
func OriginOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
