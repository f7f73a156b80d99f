package engine

// RunCache memoises slug-to-ID resolutions within one batch run so that
// repeated ledger rebuilds do not re-query the catalog for the same
// slugs. Create one per run and pass it through the pipeline; it is never
// shared across runs.
type RunCache struct {
	slugIDs map[string]string
}

// NewRunCache creates an empty per-run cache.
func NewRunCache() *RunCache {
	return &RunCache{slugIDs: make(map[string]string)}
}

func (c *RunCache) slugID(slug string) (string, bool) {
	id, ok := c.slugIDs[slug]
	return id, ok
}

func (c *RunCache) putSlugID(slug, id string) {
	c.slugIDs[slug] = id
}
