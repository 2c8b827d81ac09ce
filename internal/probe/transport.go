package probe

import (
	"crypto/tls"
	"net/http"
)

// InsecureTransport returns the default transport for stream probing.
// TLS certificate verification is disabled; IPTV hosts commonly serve
// expired or self-signed certificates.
func InsecureTransport() *http.Transport {
	return &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
}

// VerifiedTransport returns a transport with standard certificate
// verification, for callers that opt out of the insecure default.
func VerifiedTransport() *http.Transport {
	return &http.Transport{}
}
