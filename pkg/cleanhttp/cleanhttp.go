package cleanhttp

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

func transport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
	}
}

var DefaultClient = &http.Client{
	Transport: transport(),
}

// NewClient returns a client that sends requests through proxy. An empty
// proxy falls back to the environment's HTTP_PROXY settings.
func NewClient(proxy string) (*http.Client, error) {
	tr := transport()

	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid proxy %q", proxy)
		}

		tr.Proxy = http.ProxyURL(u)
	}

	return &http.Client{Transport: tr}, nil
}
