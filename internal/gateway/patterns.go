package gateway

import (
	"regexp"
)

// ThreatCategory names a signature bank.
type ThreatCategory string

const (
	CategorySQLInjection ThreatCategory = "sql_injection"
	CategoryXSS          ThreatCategory = "xss"
)

// Match describes the first signature that fired.
type Match struct {
	Category ThreatCategory
	// Pattern is the human-readable name of the signature.
	Pattern string
	// Surface is where it matched: query, user_agent or referer.
	Surface string
}

type signature struct {
	name  string
	regex *regexp.Regexp
}

func sig(name, pattern string) signature {
	return signature{name: name, regex: regexp.MustCompile(pattern)}
}

// PatternMatcher holds the compiled SQL-injection and XSS signature banks.
//
// Known limitation carried over from the legacy gateway: only the query
// string, User-Agent and Referer are scanned. Request bodies are not
// inspected.
type PatternMatcher struct {
	sqlBank []signature
	xssBank []signature
}

// NewPatternMatcher compiles the default signature banks. Bank order is
// fixed so detection output stays deterministic.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{
		sqlBank: []signature{
			sig("union_select", `(?i)\bunion\b[\s\S]{0,40}\bselect\b`),
			sig("boolean_tautology", `(?i)('|%27|")\s*(or|and)\s+\d+\s*=\s*\d+`),
			sig("or_true", `(?i)\b(or|and)\s+1\s*=\s*1\b`),
			sig("drop_table", `(?i)\bdrop\s+table\b`),
			sig("insert_into", `(?i)\binsert\s+into\b`),
			sig("delete_from", `(?i)\bdelete\s+from\b`),
			sig("stacked_query", `(?i);\s*(select|insert|update|delete|drop)\b`),
			sig("sleep_probe", `(?i)\b(sleep|benchmark|waitfor)\s*\(`),
			sig("comment_suffix", `(?i)(--|#|/\*)\s*$`),
		},
		xssBank: []signature{
			sig("script_tag", `(?i)<\s*script`),
			sig("iframe_tag", `(?i)<\s*iframe`),
			sig("javascript_uri", `(?i)javascript\s*:`),
			sig("event_handler", `(?i)\bon(error|load|click|mouseover|focus)\s*=`),
			sig("img_src_probe", `(?i)<\s*img[^>]+src\s*=`),
			sig("alert_call", `(?i)\balert\s*\(`),
			sig("document_hook", `(?i)document\.(cookie|write|location)`),
		},
	}
}

// Detect scans the request surfaces against the SQL-injection bank and then
// the XSS bank, each in the fixed order query → user-agent → referer. The
// first signature that matches short-circuits; there is no warn-only mode.
func (m *PatternMatcher) Detect(info ClientInfo) *Match {
	if match := scanBank(m.sqlBank, CategorySQLInjection, info); match != nil {
		return match
	}
	return scanBank(m.xssBank, CategoryXSS, info)
}

func scanBank(bank []signature, category ThreatCategory, info ClientInfo) *Match {
	surfaces := []struct {
		name  string
		value string
	}{
		{"query", info.Query},
		{"user_agent", info.UserAgent},
		{"referer", info.Referer},
	}
	for _, surface := range surfaces {
		if surface.value == "" {
			continue
		}
		for _, s := range bank {
			if s.regex.MatchString(surface.value) {
				return &Match{Category: category, Pattern: s.name, Surface: surface.name}
			}
		}
	}
	return nil
}
