package client

import (
	"context"
	"net/url"
)

// Endpoint wrappers. Each translates a domain-specific call into a Request
// and unwraps the outcome; the execution engine is agnostic to which
// operation it is running.

// DomainProfileRequest builds the request for a domain profile lookup.
// Exposed separately so batches can be assembled without executing.
func DomainProfileRequest(domain string) Request {
	return Request{
		ID:   domain,
		Path: "/v1/" + url.PathEscape(domain),
	}
}

// DomainProfile returns comprehensive profile information for a domain.
func (c *Client) DomainProfile(ctx context.Context, domain string) (map[string]any, error) {
	return c.lookup(ctx, DomainProfileRequest(domain))
}

// DomainSearch searches for domains matching a query.
func (c *Client) DomainSearch(ctx context.Context, query string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     query,
		Path:   "/v2/domain-search",
		Params: withParam(params, "query", query),
	})
}

// Whois returns the live WHOIS record for a domain.
func (c *Client) Whois(ctx context.Context, domain string) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:   domain,
		Path: "/v1/" + url.PathEscape(domain) + "/whois",
	})
}

// WhoisHistory returns historical WHOIS records for a domain.
func (c *Client) WhoisHistory(ctx context.Context, domain string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     domain,
		Path:   "/v1/" + url.PathEscape(domain) + "/whois/history",
		Params: params,
	})
}

// ParsedWhois returns the WHOIS record parsed into structured fields.
func (c *Client) ParsedWhois(ctx context.Context, domain string) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:   domain,
		Path: "/v1/" + url.PathEscape(domain) + "/whois/parsed",
	})
}

// Reputation returns the risk score for a domain.
func (c *Client) Reputation(ctx context.Context, domain string) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     domain,
		Path:   "/v1/reputation",
		Params: withParam(nil, "domain", domain),
	})
}

// ReverseIP returns domains sharing an IP address.
func (c *Client) ReverseIP(ctx context.Context, ip string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     ip,
		Path:   "/v1/" + url.PathEscape(ip) + "/reverse-ip",
		Params: params,
	})
}

// HostDomains returns all domains hosted on an IP address.
func (c *Client) HostDomains(ctx context.Context, ip string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     ip,
		Path:   "/v1/" + url.PathEscape(ip) + "/host-domains",
		Params: params,
	})
}

// ReverseWhois searches domains by WHOIS record fields.
func (c *Client) ReverseWhois(ctx context.Context, terms string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     terms,
		Path:   "/v1/reverse-whois",
		Params: withParam(params, "terms", terms),
	})
}

// IrisInvestigate runs an Iris Investigate query for a domain.
func (c *Client) IrisInvestigate(ctx context.Context, domain string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     domain,
		Path:   "/v1/iris-investigate",
		Params: withParam(params, "domain", domain),
	})
}

// IrisEnrich runs an Iris Enrich query for a domain.
func (c *Client) IrisEnrich(ctx context.Context, domain string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     domain,
		Path:   "/v1/iris-enrich",
		Params: withParam(params, "domain", domain),
	})
}

// IrisDetect runs an Iris Detect query.
func (c *Client) IrisDetect(ctx context.Context, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     "iris-detect",
		Path:   "/v1/iris-detect",
		Params: params,
	})
}

// NameServerMonitor lists domains transferring to or from a nameserver.
func (c *Client) NameServerMonitor(ctx context.Context, nameserver string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     nameserver,
		Path:   "/v1/name-server-monitor",
		Params: withParam(params, "query", nameserver),
	})
}

// RegistrantMonitor lists domain registrations matching a registrant query.
func (c *Client) RegistrantMonitor(ctx context.Context, query string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     query,
		Path:   "/v1/registrant-monitor",
		Params: withParam(params, "query", query),
	})
}

// BrandMonitor lists new domain registrations matching a brand term.
func (c *Client) BrandMonitor(ctx context.Context, query string, params url.Values) (map[string]any, error) {
	return c.lookup(ctx, Request{
		ID:     query,
		Path:   "/v1/brand-monitor",
		Params: withParam(params, "query", query),
	})
}

// lookup executes a single request and unwraps its outcome into the
// conventional (payload, error) library shape.
func (c *Client) lookup(ctx context.Context, req Request) (map[string]any, error) {
	outcome, err := c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if outcome.Err != nil {
		return nil, outcome.Err
	}
	return outcome.Payload, nil
}

// withParam clones params and sets one additional key.
func withParam(params url.Values, key, value string) url.Values {
	out := url.Values{}
	for k, vals := range params {
		for _, v := range vals {
			out.Add(k, v)
		}
	}
	out.Set(key, value)
	return out
}
