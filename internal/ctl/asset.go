package ctl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// AssetFilters narrows the asset listing. Zero values mean no filter.
type AssetFilters struct {
	TenantID string
	BrandID  string
	Status   string
	Limit    int
}

type assetRow struct {
	ID               string `json:"id"`
	TenantID         string `json:"tenant_id"`
	Status           string `json:"status"`
	SizeBytes        int64  `json:"size_bytes"`
	Title            string `json:"title"`
	OriginalFilename string `json:"original_filename"`
}

// ListAssets prints matching assets, newest first.
func ListAssets(apiURL, apiKey string, f AssetFilters) error {
	client, err := newAuthedClient(apiURL, apiKey)
	if err != nil {
		return err
	}

	q := url.Values{}
	if f.TenantID != "" {
		q.Set("tenant_id", f.TenantID)
	}
	if f.BrandID != "" {
		q.Set("brand_id", f.BrandID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/api/v1/assets"
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
	var assets []assetRow
	if err := json.Unmarshal(items, &assets); err != nil {
		return fmt.Errorf("parse assets: %w", err)
	}

	if len(assets) == 0 {
		fmt.Println("No assets found.")
		return nil
	}

	fmt.Printf("%-30s %-28s %-16s %-9s %s\n", "ID", "TENANT", "STATUS", "SIZE", "TITLE")
	for _, a := range assets {
		title := a.Title
		if title == "" {
			title = a.OriginalFilename
		}
		fmt.Printf("%-30s %-28s %-16s %-9s %s\n", a.ID, a.TenantID, a.Status, formatSize(a.SizeBytes), title)
	}
	if resp.HasMore() {
		fmt.Printf("(%d shown, more available; raise -limit)\n", len(assets))
	}
	return nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
