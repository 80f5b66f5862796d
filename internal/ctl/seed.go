package ctl

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed bootstraps a workspace from a YAML definition: tenants, their
// brands and optional extra API keys. Re-running is safe; existing
// resources are matched by name (tenants) or slug (brands) and skipped.
func Seed(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	client, err := newAuthedClient(apiURL, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("no API key: set api_key in config or MEDIAVAULT_API_KEY env var")
	}

	for _, t := range cfg.Tenants {
		tenantID, err := client.FindTenantByName(t.Name)
		if err == nil {
			fmt.Printf("Tenant %q: exists (%s, skipping)\n", t.Name, tenantID)
		} else {
			fmt.Printf("Creating tenant %q...\n", t.Name)
			body := map[string]any{
				"name": t.Name,
			}
			if t.StorageQuotaGB > 0 {
				body["storage_quota_bytes"] = t.StorageQuotaGB << 30
			}
			resp, err := client.Post("/api/v1/tenants", body)
			if err != nil {
				return fmt.Errorf("create tenant %q: %w", t.Name, err)
			}
			tenantID, err = extractID(resp)
			if err != nil {
				return fmt.Errorf("parse tenant ID: %w", err)
			}
			fmt.Printf("  Tenant %q: %s created\n", t.Name, tenantID)
		}

		for _, b := range t.Brands {
			brandID, err := client.FindBrandBySlug(tenantID, b.Slug)
			if err == nil {
				fmt.Printf("  Brand %q: exists (%s, skipping)\n", b.Slug, brandID)
				continue
			}
			body := map[string]any{
				"name": b.Name,
				"slug": b.Slug,
			}
			if b.AccentColor != "" {
				body["accent_color"] = b.AccentColor
			}
			resp, err := client.Post(fmt.Sprintf("/api/v1/tenants/%s/brands", tenantID), body)
			if err != nil {
				return fmt.Errorf("create brand %q: %w", b.Slug, err)
			}
			brandID, err = extractID(resp)
			if err != nil {
				return fmt.Errorf("parse brand ID: %w", err)
			}
			fmt.Printf("  Brand %q: %s created\n", b.Slug, brandID)
		}
	}

	for _, k := range cfg.APIKeys {
		fmt.Printf("Creating API key %q...\n", k.Name)
		resp, err := client.Post("/api/v1/api-keys", map[string]any{
			"name": k.Name,
		})
		if err != nil {
			return fmt.Errorf("create API key %q: %w", k.Name, err)
		}
		var created struct {
			ID  string `json:"id"`
			Key string `json:"key"`
		}
		if err := json.Unmarshal(resp.Body, &created); err != nil {
			return fmt.Errorf("parse API key response: %w", err)
		}
		fmt.Printf("  API key %q: %s\n", k.Name, created.ID)
		fmt.Printf("  Raw key (shown once): %s\n", created.Key)
	}

	fmt.Println("Seed complete.")
	return nil
}

func extractID(resp *Response) (string, error) {
	var resource struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &resource); err != nil {
		return "", fmt.Errorf("parse response ID: %w", err)
	}
	return resource.ID, nil
}
