package models

// FetchSource tags where a fetch result came from.
type FetchSource string

const (
	FetchSourceNone    FetchSource = "none"
	FetchSourceCache   FetchSource = "cache"
	FetchSourceNetwork FetchSource = "network"
)

// FetchResult wraps the outcome of one acquirer fetch. Data is nil when the ticker could
// not be fetched; Err then holds the last failure. CacheWriteErr is set when the fetch
// succeeded but the cache write did not.
type FetchResult struct {
	Ticker        string
	Data          *RawFinancials
	Source        FetchSource
	Attempts      int
	Err           error
	CacheWriteErr error
}

// OK reports whether the fetch produced data.
func (r FetchResult) OK() bool {
	return r.Data != nil
}
