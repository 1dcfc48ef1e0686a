package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// keyData is marshaled with fields in lexical order so the fingerprint is
// stable across processes.
type keyData struct {
	Fields    []string `json:"fields"`
	Language  string   `json:"language"`
	Name      string   `json:"name"`
	WebSearch bool     `json:"web_search"`
}

// Key computes the cache fingerprint for an enrichment request. The product
// name is lowercased and trimmed and the field list is sorted, so neither
// name casing nor field order affects cache identity. The product's
// country_origin is deliberately not part of the key; see Get in the enricher
// for the routing implications.
func Key(productName, language string, fields []string, webSearch bool) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	payload, _ := json.Marshal(keyData{
		Fields:    sorted,
		Language:  language,
		Name:      strings.ToLower(strings.TrimSpace(productName)),
		WebSearch: webSearch,
	})

	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}
