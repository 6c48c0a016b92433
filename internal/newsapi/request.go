package newsapi

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Mode selects one of the two upstream query endpoints.
type Mode int

const (
	// Headlines lists curated top stories filtered by country and category.
	Headlines Mode = iota + 1
	// Everything is free-text search with sort order and language.
	Everything
)

// Upstream field names.
const (
	FieldCountry  = "country"
	FieldCategory = "category"
	FieldQuery    = "q"
	FieldSortBy   = "sortBy"
	FieldLanguage = "language"
)

var allowedFields = map[Mode]map[string]struct{}{
	Headlines: {
		FieldCountry:  {},
		FieldCategory: {},
		FieldQuery:    {},
		FieldLanguage: {},
	},
	Everything: {
		FieldQuery:    {},
		FieldSortBy:   {},
		FieldLanguage: {},
	},
}

func (m Mode) String() string {
	switch m {
	case Headlines:
		return "headlines"
	case Everything:
		return "everything"
	default:
		return "unknown"
	}
}

// Endpoint returns the path of the mode relative to the API base URL.
func (m Mode) Endpoint() string {
	switch m {
	case Everything:
		return "/everything"
	default:
		return "/top-headlines"
	}
}

// Param is one upstream filter field.
type Param struct {
	Name  string
	Value string
}

// P is shorthand for building a Param.
func P(name, value string) Param {
	return Param{Name: name, Value: value}
}

// QueryRequest describes a single upstream call. It is immutable once built.
type QueryRequest struct {
	mode   Mode
	params map[string]string
}

// NewRequest builds a request for mode. Fields the mode does not accept are
// dropped, so a full-text request can never carry country or category.
func NewRequest(mode Mode, params ...Param) QueryRequest {
	allowed := allowedFields[mode]
	out := make(map[string]string, len(params))
	for _, p := range params {
		if _, ok := allowed[p.Name]; !ok {
			continue
		}
		out[p.Name] = p.Value
	}
	return QueryRequest{mode: mode, params: out}
}

// Mode reports which endpoint the request targets.
func (r QueryRequest) Mode() Mode { return r.mode }

// Get returns the value of an upstream field.
func (r QueryRequest) Get(name string) (string, bool) {
	v, ok := r.params[name]
	return v, ok
}

// Has reports whether the upstream field is set.
func (r QueryRequest) Has(name string) bool {
	_, ok := r.params[name]
	return ok
}

// Params returns a copy of the upstream fields.
func (r QueryRequest) Params() map[string]string {
	out := make(map[string]string, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out
}

// Values encodes the request together with the page size. Credentials
// never go into the query string.
func (r QueryRequest) Values(pageSize int) url.Values {
	v := url.Values{}
	for k, val := range r.params {
		v.Set(k, val)
	}
	if pageSize > 0 {
		v.Set("pageSize", strconv.Itoa(pageSize))
	}
	return v
}

// String renders the request without credentials, for logs.
func (r QueryRequest) String() string {
	keys := make([]string, 0, len(r.params))
	for k := range r.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(r.mode.Endpoint())
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(r.params[k])
	}
	return b.String()
}
