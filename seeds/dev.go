package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/argon2"
)

const (
	devTenantID   = "tnt_acme_dev_000000000001"
	devTenant2ID  = "tnt_globex_dev_00000000001"
	devBrandID    = "brd_acme_core_000000000001"
	devBrand2ID   = "brd_acme_events_0000000001"
	devBrand3ID   = "brd_globex_main_0000000001"
	devUserID     = "usr_acme_dev_000000000001"
	devUser2ID    = "usr_globex_dev_0000000001"
	devAssetID    = "ast_dev_processed_00000001"
	devAsset2ID   = "ast_dev_stuck_000000000001"
	devAsset3ID   = "ast_dev_failed_00000000001"
	devIncidentID = "inc_dev_thumb_000000000001"
	devIncident2  = "inc_dev_promo_000000000001"
	devIncident3  = "inc_dev_resolved_000000001"
	devTicketID   = "tkt_dev_000000000000000001"

	// Well-known dev API key. The seed stores only the hash, same as the
	// create-api-key command.
	devAPIKey   = "mvk_dev0000000000000000000000000000000000000000dev"
	devAPIKeyID = "key_dev_000000000000000001"
)

func main() {
	databaseURL := os.Getenv("MEDIAVAULT_DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "MEDIAVAULT_DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("Seeding mediavault database...")

	// --- Tenants and brands ---

	fmt.Println("  Inserting tenants...")
	_, err = pool.Exec(ctx,
		`INSERT INTO tenants (id, name, status, storage_quota_bytes) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		devTenantID, "Acme Media", "active", int64(50)<<30)
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert tenant: %v\n", err)
		os.Exit(1)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO tenants (id, name, status, storage_quota_bytes) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		devTenant2ID, "Globex Studios", "active", int64(10)<<30)
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert tenant 2: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting brands...")
	brands := [][4]string{
		{devBrandID, devTenantID, "Acme Core", "acme-core"},
		{devBrand2ID, devTenantID, "Acme Events", "acme-events"},
		{devBrand3ID, devTenant2ID, "Globex Main", "globex-main"},
	}
	for _, b := range brands {
		_, err = pool.Exec(ctx,
			`INSERT INTO brands (id, tenant_id, name, slug, accent_color) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			b[0], b[1], b[2], b[3], "#1a73e8")
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert brand %s: %v\n", b[3], err)
			os.Exit(1)
		}
	}

	// --- Portal users ---

	fmt.Println("  Inserting portal users...")
	passwordHash, err := hashPassword("password")
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO portal_users (id, tenant_id, email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
		devUserID, devTenantID, "admin@acme-media.test", "Acme Admin", passwordHash, "admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert portal user: %v\n", err)
		os.Exit(1)
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO portal_users (id, tenant_id, email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`,
		devUser2ID, devTenant2ID, "editor@globex.test", "Globex Editor", passwordHash, "member")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert portal user 2: %v\n", err)
		os.Exit(1)
	}

	// --- API key ---

	fmt.Println("  Inserting dev API key...")
	keyHash := sha256.Sum256([]byte(devAPIKey))
	_, err = pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		devAPIKeyID, "dev", hex.EncodeToString(keyHash[:]), devAPIKey[:12])
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert api key: %v\n", err)
		os.Exit(1)
	}

	// --- Assets in assorted states ---

	fmt.Println("  Inserting sample assets...")
	_, err = pool.Exec(ctx,
		`INSERT INTO assets (id, tenant_id, brand_id, title, original_filename, mime_type, size_bytes,
		                     checksum, storage_key, status, analysis_status, width, height)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'processed', 'complete', 4000, 2250)
		 ON CONFLICT (id) DO NOTHING`,
		devAssetID, devTenantID, devBrandID, "Spring Campaign Hero", "spring-hero.jpg",
		"image/jpeg", int64(2_400_000), "0000000000000000000000000000000000000000000000000000000000000001",
		"tenants/"+devTenantID+"/assets/"+devAssetID+"/original/spring-hero.jpg")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert asset: %v\n", err)
		os.Exit(1)
	}
	for _, p := range []struct {
		profile string
		w, h    int
	}{{"thumb", 320, 180}, {"preview", 1280, 720}, {"hero", 2400, 1350}} {
		_, err = pool.Exec(ctx,
			`INSERT INTO renditions (id, asset_id, profile, storage_key, width, height, size_bytes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (asset_id, profile) DO NOTHING`,
			"rnd_dev_"+p.profile+"_0000000001", devAssetID, p.profile,
			"tenants/"+devTenantID+"/assets/"+devAssetID+"/renditions/"+p.profile+".jpg",
			p.w, p.h, int64(100_000))
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert rendition %s: %v\n", p.profile, err)
			os.Exit(1)
		}
	}

	// Stuck in processing for two hours; the stale-asset monitor has
	// already reported it (incident below).
	_, err = pool.Exec(ctx,
		`INSERT INTO assets (id, tenant_id, brand_id, title, original_filename, mime_type, size_bytes,
		                     checksum, storage_key, status, analysis_status, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'processing', 'analyzing', now() - interval '2 hours')
		 ON CONFLICT (id) DO NOTHING`,
		devAsset2ID, devTenantID, devBrand2ID, "Keynote Recording", "keynote.mp4",
		"video/mp4", int64(48_000_000), "0000000000000000000000000000000000000000000000000000000000000002",
		"tenants/"+devTenantID+"/assets/"+devAsset2ID+"/original/keynote.mp4")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert asset 2: %v\n", err)
		os.Exit(1)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO assets (id, tenant_id, title, original_filename, mime_type, size_bytes,
		                     checksum, storage_key, status, analysis_status, width, height)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'promotion_failed', 'complete', 800, 600)
		 ON CONFLICT (id) DO NOTHING`,
		devAsset3ID, devTenant2ID, "Launch Banner", "launch-banner.png",
		"image/png", int64(320_000), "0000000000000000000000000000000000000000000000000000000000000003",
		"tenants/"+devTenant2ID+"/assets/"+devAsset3ID+"/original/launch-banner.png")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert asset 3: %v\n", err)
		os.Exit(1)
	}

	// --- Incidents and a ticket ---

	fmt.Println("  Inserting incidents...")

	// Stale-monitor report for the stuck asset. The signature keeps repeat
	// sweeps from stacking duplicates.
	_, err = pool.Exec(ctx,
		`INSERT INTO incidents (id, tenant_id, severity, source_type, source_id, title, message,
		                        retryable, metadata, unique_signature, detected_at)
		 VALUES ($1, $2, 'critical', 'asset', $3, $4, $5, true, '{"minutes_stuck": 120}',
		         $6, now() - interval '30 minutes')
		 ON CONFLICT (id) DO NOTHING`,
		devIncidentID, devTenantID, devAsset2ID,
		"Asset stuck in processing",
		"Asset "+devAsset2ID+" has been processing for 120 minutes.",
		"stuck-asset:"+devAsset2ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert incident: %v\n", err)
		os.Exit(1)
	}

	// Reported as error by the pipeline; three days old, so the escalation
	// sweep has already persisted critical and opened the ticket below.
	_, err = pool.Exec(ctx,
		`INSERT INTO incidents (id, tenant_id, severity, source_type, source_id, title, message,
		                        retryable, metadata, detected_at)
		 VALUES ($1, $2, 'critical', 'asset', $3, $4, $5, true, '{"repair_attempts": 2, "retried": true}',
		         now() - interval '3 days')
		 ON CONFLICT (id) DO NOTHING`,
		devIncident2, devTenant2ID, devAsset3ID,
		"Asset promotion failed",
		"promote asset: copy to public prefix: context deadline exceeded")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert incident 2: %v\n", err)
		os.Exit(1)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO incidents (id, tenant_id, severity, source_type, source_id, title, message,
		                        retryable, auto_resolved, metadata, detected_at, resolved_at)
		 VALUES ($1, $2, 'error', 'job', $3, $4, $5, true, true, '{"auto_recovered": true}',
		         now() - interval '1 day', now() - interval '23 hours')
		 ON CONFLICT (id) DO NOTHING`,
		devIncident3, devTenantID, "job-render-42",
		"Render job crashed",
		"Worker lost the render job mid-flight; the retry completed.")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert incident 3: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("  Inserting support ticket...")
	_, err = pool.Exec(ctx,
		`INSERT INTO tickets (id, tenant_id, incident_id, subject, body, status, priority)
		 VALUES ($1, $2, $3, $4, $5, 'open', 'urgent')
		 ON CONFLICT (id) DO NOTHING`,
		devTicketID, devTenant2ID, devIncident2,
		"Asset promotion failed",
		"promote asset: copy to public prefix: context deadline exceeded")
	if err != nil {
		fmt.Fprintf(os.Stderr, "insert ticket: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Seed complete!")
	fmt.Println()
	fmt.Println("  Tenant: Acme Media")
	fmt.Println("    Portal login: admin@acme-media.test / password")
	fmt.Println("  Tenant: Globex Studios")
	fmt.Println("    Portal login: editor@globex.test / password")
	fmt.Println()
	fmt.Printf("  API key: %s\n", devAPIKey)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 3, 65536, 4, 32)

	return fmt.Sprintf("$argon2id$v=19$m=65536,t=3,p=4$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}
