package ctl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ReportParams carries the fields for a manually reported incident.
type ReportParams struct {
	SourceType      string
	SourceID        string
	TenantID        string
	Title           string
	Message         string
	Severity        string
	Retryable       bool
	UniqueSignature string
}

type incidentRow struct {
	ID         string     `json:"id"`
	Severity   string     `json:"severity"`
	SourceType string     `json:"source_type"`
	SourceID   *string    `json:"source_id"`
	Title      string     `json:"title"`
	DetectedAt time.Time  `json:"detected_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// ReportIncident records one incident via the API and prints the result.
// With a unique signature the API may hand back an already-open incident
// instead of a new one.
func ReportIncident(apiURL, apiKey string, p ReportParams) error {
	client, err := newAuthedClient(apiURL, apiKey)
	if err != nil {
		return err
	}

	body := map[string]any{
		"source_type": p.SourceType,
		"title":       p.Title,
	}
	if p.SourceID != "" {
		body["source_id"] = p.SourceID
	}
	if p.TenantID != "" {
		body["tenant_id"] = p.TenantID
	}
	if p.Message != "" {
		body["message"] = p.Message
	}
	if p.Severity != "" {
		body["severity"] = p.Severity
	}
	if p.Retryable {
		body["retryable"] = true
	}
	if p.UniqueSignature != "" {
		body["unique_signature"] = p.UniqueSignature
	}

	resp, err := client.Post("/api/v1/incidents", body)
	if err != nil {
		return err
	}

	var inc incidentRow
	if err := json.Unmarshal(resp.Body, &inc); err != nil {
		return fmt.Errorf("parse incident response: %w", err)
	}
	fmt.Printf("Incident %s recorded (severity %s)\n", inc.ID, inc.Severity)
	return nil
}

// IncidentFilters narrows the incident listing. Zero values mean no filter.
type IncidentFilters struct {
	TenantID   string
	Severity   string
	SourceType string
	Status     string
	Limit      int
}

// ListIncidents prints matching incidents, newest first.
func ListIncidents(apiURL, apiKey string, f IncidentFilters) error {
	client, err := newAuthedClient(apiURL, apiKey)
	if err != nil {
		return err
	}

	q := url.Values{}
	if f.TenantID != "" {
		q.Set("tenant_id", f.TenantID)
	}
	if f.Severity != "" {
		q.Set("severity", f.Severity)
	}
	if f.SourceType != "" {
		q.Set("source_type", f.SourceType)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/api/v1/incidents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := client.Get(path)
	if err != nil {
		return err
	}
	items, err := resp.Items()
	if err != nil {
		return err
	}
	var incidents []incidentRow
	if err := json.Unmarshal(items, &incidents); err != nil {
		return fmt.Errorf("parse incidents: %w", err)
	}

	if len(incidents) == 0 {
		fmt.Println("No incidents found.")
		return nil
	}

	fmt.Printf("%-36s %-9s %-22s %-8s %s\n", "ID", "SEVERITY", "SOURCE", "AGE", "TITLE")
	for _, inc := range incidents {
		source := inc.SourceType
		if inc.SourceID != nil {
			source = inc.SourceType + "/" + *inc.SourceID
		}
		if len(source) > 22 {
			source = source[:19] + "..."
		}
		age := formatAge(time.Since(inc.DetectedAt))
		if inc.ResolvedAt != nil {
			age = "resolved"
		}
		fmt.Printf("%-36s %-9s %-22s %-8s %s\n", inc.ID, inc.Severity, source, age, inc.Title)
	}
	if resp.HasMore() {
		fmt.Printf("(%d shown, more available; raise -limit)\n", len(incidents))
	}
	return nil
}

// RecoverIncident runs the repair chain against one incident and prints
// what, if anything, changed.
func RecoverIncident(apiURL, apiKey, incidentID string) error {
	client, err := newAuthedClient(apiURL, apiKey)
	if err != nil {
		return err
	}

	resp, err := client.Post(fmt.Sprintf("/api/v1/incidents/%s/recover", incidentID), nil)
	if err != nil {
		return err
	}

	var result struct {
		Resolved bool `json:"resolved"`
		Changes  []struct {
			Field string `json:"field"`
			From  string `json:"from"`
			To    string `json:"to"`
		} `json:"changes"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return fmt.Errorf("parse recovery result: %w", err)
	}

	switch {
	case result.Resolved:
		fmt.Printf("Incident %s resolved by repair.\n", incidentID)
	case len(result.Changes) > 0:
		fmt.Printf("Repair made progress; incident %s stays open pending verification.\n", incidentID)
	default:
		fmt.Printf("No repair strategy made progress on incident %s.\n", incidentID)
	}
	for _, ch := range result.Changes {
		fmt.Printf("  %s: %s -> %s\n", ch.Field, ch.From, ch.To)
	}
	return nil
}

// formatAge renders a duration as a compact "3d2h" / "45m" / "30s" string.
func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d >= 24*time.Hour:
		days := int(d.Hours()) / 24
		hours := int(d.Hours()) % 24
		return fmt.Sprintf("%dd%dh", days, hours)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
