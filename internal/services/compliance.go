package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ComplianceReport summarizes the retention/consent posture reported by the
// external compliance provider.
type ComplianceReport struct {
	Compliant       bool    `json:"compliant"`
	AvgConsentRate  float64 `json:"avg_consent_rate"`
	PendingRequests int     `json:"pending_requests"`
	ExpiredRecords  int     `json:"expired_records"`
	GeneratedAt     string  `json:"generated_at,omitempty"`
}

// ComplianceProvider fetches the current compliance report. The dashboard
// treats the provider as an external collaborator: a failing provider
// degrades to the last-known/neutral report rather than an error page.
type ComplianceProvider interface {
	Report(ctx context.Context) (ComplianceReport, error)
}

// HTTPComplianceProvider pulls reports from the compliance service API.
type HTTPComplianceProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPComplianceProvider returns a provider for the given base URL.
func NewHTTPComplianceProvider(baseURL string) *HTTPComplianceProvider {
	return &HTTPComplianceProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Report fetches /api/v1/report from the compliance service.
func (p *HTTPComplianceProvider) Report(ctx context.Context) (ComplianceReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/v1/report", nil)
	if err != nil {
		return ComplianceReport{}, fmt.Errorf("build compliance request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ComplianceReport{}, fmt.Errorf("fetch compliance report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ComplianceReport{}, fmt.Errorf("compliance service returned %d", resp.StatusCode)
	}

	var report ComplianceReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return ComplianceReport{}, fmt.Errorf("decode compliance report: %w", err)
	}
	return report, nil
}

// StaticComplianceProvider returns a fixed report. Used when no compliance
// service is configured and as the neutral fallback in tests.
type StaticComplianceProvider struct {
	Value ComplianceReport
}

// Report returns the fixed report.
func (p *StaticComplianceProvider) Report(_ context.Context) (ComplianceReport, error) {
	return p.Value, nil
}

// DefaultComplianceReport is the neutral posture assumed when no provider is
// reachable: compliant, healthy consent rate, nothing pending.
func DefaultComplianceReport() ComplianceReport {
	return ComplianceReport{Compliant: true, AvgConsentRate: 100}
}
