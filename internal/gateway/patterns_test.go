package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_SQLInjection(t *testing.T) {
	m := NewPatternMatcher()

	cases := []string{
		"id=' OR 1=1--",
		"q=1 UNION SELECT password FROM users",
		"name=x'; DROP TABLE jobs;--",
		"v=1; select sleep(5)",
	}
	for _, q := range cases {
		match := m.Detect(ClientInfo{Query: q})
		if assert.NotNil(t, match, "query %q should match", q) {
			assert.Equal(t, CategorySQLInjection, match.Category)
			assert.Equal(t, "query", match.Surface)
		}
	}
}

func TestDetect_XSS(t *testing.T) {
	m := NewPatternMatcher()

	match := m.Detect(ClientInfo{Query: "q=<script>alert(1)</script>"})
	if assert.NotNil(t, match) {
		assert.Equal(t, CategoryXSS, match.Category)
	}

	match = m.Detect(ClientInfo{Query: "redirect=javascript:alert(document.cookie)"})
	if assert.NotNil(t, match) {
		assert.Equal(t, CategoryXSS, match.Category)
	}
}

func TestDetect_ScansHeaderSurfaces(t *testing.T) {
	m := NewPatternMatcher()

	match := m.Detect(ClientInfo{UserAgent: "Mozilla <script>evil()</script>"})
	if assert.NotNil(t, match) {
		assert.Equal(t, "user_agent", match.Surface)
	}

	match = m.Detect(ClientInfo{Referer: "https://evil.test/?x=' OR 1=1--"})
	if assert.NotNil(t, match) {
		assert.Equal(t, "referer", match.Surface)
	}
}

func TestDetect_FirstMatchWins(t *testing.T) {
	m := NewPatternMatcher()

	// Payload matching both banks reports SQL injection: that bank scans first.
	match := m.Detect(ClientInfo{Query: "q=' OR 1=1-- <script>"})
	if assert.NotNil(t, match) {
		assert.Equal(t, CategorySQLInjection, match.Category)
	}
}

func TestDetect_BenignTraffic(t *testing.T) {
	m := NewPatternMatcher()

	benign := []ClientInfo{
		{Query: "q=golang+developer&page=2", UserAgent: "Mozilla/5.0"},
		{Query: "title=Senior Engineer (Go)", Referer: "https://hirewire.test/jobs"},
		{},
	}
	for _, info := range benign {
		assert.Nil(t, m.Detect(info))
	}
}
