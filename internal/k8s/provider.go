package k8s

// Provider is the two-state capability handle for cluster access: the cluster
// may legitimately be unreachable (local development, degraded environments).
// Callers check availability before each operation and treat the unavailable
// case as data for reads, not as an exception path.
type Provider struct {
	client ClusterClient
	err    error
}

// Ready wraps a usable cluster client.
func Ready(client ClusterClient) *Provider {
	return &Provider{client: client}
}

// Unavailable records why the cluster backend could not be initialized.
func Unavailable(err error) *Provider {
	return &Provider{err: err}
}

// Available reports whether cluster operations can be attempted.
func (p *Provider) Available() bool {
	return p != nil && p.client != nil
}

// Client returns the cluster client, or false when unavailable.
func (p *Provider) Client() (ClusterClient, bool) {
	if !p.Available() {
		return nil, false
	}
	return p.client, true
}

// Err returns the initialization error, if any.
func (p *Provider) Err() error {
	if p == nil {
		return nil
	}
	return p.err
}
