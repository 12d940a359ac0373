// Package classify decides, from headers and body text alone, whether an
// inbound email is a delivery-failure bounce, an automated reply, or genuine
// human content, and splits a plain-text body into its sections. Everything
// here is pure and deterministic.
package classify

import "net/textproto"

// Header is a flattened view of an email's headers, keyed by canonical MIME
// header name.
type Header map[string]string

// Get returns the header value for key, canonicalizing the lookup key.
// Missing headers return the empty string.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

// Set stores a value under the canonical form of key.
func (h Header) Set(key, value string) {
	h[textproto.CanonicalMIMEHeaderKey(key)] = value
}
