package ctl

type SeedConfig struct {
	APIURL  string      `yaml:"api_url"`
	APIKey  string      `yaml:"api_key"`
	Tenants []TenantDef `yaml:"tenants"`
	APIKeys []APIKeyDef `yaml:"api_keys"`
}

type TenantDef struct {
	Name           string     `yaml:"name"`
	StorageQuotaGB int64      `yaml:"storage_quota_gb"`
	Brands         []BrandDef `yaml:"brands"`
}

type BrandDef struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	AccentColor string `yaml:"accent_color"`
}

type APIKeyDef struct {
	Name string `yaml:"name"`
}
