package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"sort"
)

const keyPrefix = "resume:parse:"

// Fingerprint derives the cache key from the preprocessed document content,
// the request parameters, and the selected model tier. Same inputs, same
// key; any change to one of them changes the key. Fields are NUL-delimited
// so adjacent values cannot collide by concatenation.
func Fingerprint(content string, params url.Values, tier string) string {
	h := sha256.New()
	io.WriteString(h, content)
	h.Write([]byte{0})

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vals := append([]string(nil), params[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			io.WriteString(h, k)
			h.Write([]byte{0})
			io.WriteString(h, v)
			h.Write([]byte{0})
		}
	}

	io.WriteString(h, tier)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
