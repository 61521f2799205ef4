package embeds

import "strings"

// QueryMode selects how RewriteURL combines new parameters with a URL's
// existing query string.
type QueryMode int

const (
	// QueryOverride merges parameters by key, replacing existing values.
	QueryOverride QueryMode = iota
	// QueryAppend concatenates parameters verbatim, duplicates included.
	QueryAppend
)

// String returns the string representation of the QueryMode.
func (m QueryMode) String() string {
	switch m {
	case QueryOverride:
		return "override"
	case QueryAppend:
		return "append"
	default:
		return "unknown"
	}
}

// RewriteURL returns baseURL with params applied according to mode. Params
// are "key=value" or bare "key" strings. The URL is treated as already
// encoded text: nothing is percent-decoded or re-encoded.
func RewriteURL(baseURL string, params []string, mode QueryMode) string {
	if mode == QueryAppend {
		return appendParams(baseURL, params)
	}
	return overrideParams(baseURL, params)
}

func overrideParams(baseURL string, params []string) string {
	path := baseURL
	q := newOrderedQuery()

	if idx := strings.IndexByte(baseURL, '?'); idx >= 0 {
		path = baseURL[:idx]
		for _, pair := range strings.Split(baseURL[idx+1:], "&") {
			q.set(splitParam(pair))
		}
	}

	for _, pair := range params {
		if pair == "" {
			continue
		}
		q.set(splitParam(pair))
	}

	if q.len() == 0 {
		return path
	}
	return path + "?" + q.encode()
}

func appendParams(baseURL string, params []string) string {
	u := baseURL
	if !strings.Contains(u, "?") {
		u += "?"
	}

	for _, p := range params {
		if p == "" {
			continue
		}
		if strings.HasSuffix(u, "?") {
			u += p
		} else {
			u += "&" + p
		}
	}

	return u
}

// splitParam splits on the first "=" only; a bare key has an empty value.
func splitParam(pair string) (string, string) {
	key, value, _ := strings.Cut(pair, "=")
	return key, value
}

// orderedQuery keeps keys in first-insertion order; later writes to an
// existing key replace its value in place. The empty key is an ordinary key,
// so "?" and "?&a=1" survive a rewrite unchanged.
type orderedQuery struct {
	keys   []string
	values map[string]string
}

func newOrderedQuery() *orderedQuery {
	return &orderedQuery{values: make(map[string]string)}
}

func (q *orderedQuery) set(key, value string) {
	if _, exists := q.values[key]; !exists {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
}

func (q *orderedQuery) len() int {
	return len(q.keys)
}

func (q *orderedQuery) encode() string {
	joined := make([]string, 0, len(q.keys))
	for _, key := range q.keys {
		if value := q.values[key]; value != "" {
			joined = append(joined, key+"="+value)
		} else {
			joined = append(joined, key)
		}
	}
	return strings.Join(joined, "&")
}
