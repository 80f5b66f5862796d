package ctl

import (
	"encoding/json"
	"fmt"
)

type namedResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (c *Client) FindTenantByName(name string) (string, error) {
	return c.findBy("/api/v1/tenants", func(r namedResource) bool {
		return r.Name == name
	}, name)
}

func (c *Client) FindBrandBySlug(tenantID, slug string) (string, error) {
	path := fmt.Sprintf("/api/v1/tenants/%s/brands", tenantID)
	return c.findBy(path, func(r namedResource) bool {
		return r.Slug == slug
	}, slug)
}

func (c *Client) findBy(path string, match func(namedResource) bool, label string) (string, error) {
	resp, err := c.Get(path)
	if err != nil {
		return "", err
	}

	items, err := resp.Items()
	if err != nil {
		return "", fmt.Errorf("parse resources from %s: %w", path, err)
	}

	var resources []namedResource
	if err := json.Unmarshal(items, &resources); err != nil {
		return "", fmt.Errorf("parse resources from %s: %w", path, err)
	}

	for _, r := range resources {
		if match(r) {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("%q not found at %s", label, path)
}
