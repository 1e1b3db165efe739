package stealth

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
)

// Proxy is a single upstream proxy endpoint.
type Proxy struct {
	URL *url.URL
}

// Transport returns an http.Transport routing through this proxy.
func (p *Proxy) Transport() http.RoundTripper {
	return &http.Transport{
		Proxy:               http.ProxyURL(p.URL),
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}
}

// ProxyRotator hands out proxies round-robin. Useful when a pharmacy
// upstream geo-blocks or rate-bans the scraper's own egress IP.
type ProxyRotator struct {
	proxies []*Proxy
	mu      sync.Mutex
	idx     int
}

// NewProxyRotatorFromFile loads one proxy URL per line (http, https or
// socks5 schemes; # comments and blank lines skipped).
func NewProxyRotatorFromFile(path string) (*ProxyRotator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open proxy file: %w", err)
	}
	defer f.Close()

	var proxies []*Proxy
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", line, err)
		}
		proxies = append(proxies, &Proxy{URL: u})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read proxy file: %w", err)
	}
	if len(proxies) == 0 {
		return nil, fmt.Errorf("proxy file %s contains no proxies", path)
	}
	return &ProxyRotator{proxies: proxies}, nil
}

// Next returns the next proxy in round-robin order, nil when none are set.
func (r *ProxyRotator) Next() *Proxy {
	if r == nil || len(r.proxies) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proxies[r.idx%len(r.proxies)]
	r.idx++
	return p
}
