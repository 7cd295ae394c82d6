package ses

// NewLazy exposes the lazy constructor with a custom builder for tests.
func NewLazy(region string, build func() (API, error)) *Client {
	return newLazy(region, build)
}
