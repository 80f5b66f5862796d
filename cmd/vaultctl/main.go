package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/solvik/mediavault/internal/ctl"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ExitOnError)
		file := fs.String("f", "", "Path to seed definition YAML file (required)")
		fs.Parse(os.Args[2:])

		if *file == "" {
			fmt.Fprintln(os.Stderr, "Error: -f flag is required")
			fs.Usage()
			os.Exit(1)
		}

		if err := ctl.Seed(*file); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "incident":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: vaultctl incident report|list|recover ...")
			os.Exit(1)
		}
		switch os.Args[2] {
		case "report":
			cmdIncidentReport(os.Args[3:])
		case "list":
			cmdIncidentList(os.Args[3:])
		case "recover":
			cmdIncidentRecover(os.Args[3:])
		default:
			fmt.Fprintf(os.Stderr, "Unknown incident command: %s\n", os.Args[2])
			os.Exit(1)
		}

	case "asset":
		if len(os.Args) < 3 || os.Args[2] != "list" {
			fmt.Fprintln(os.Stderr, "Usage: vaultctl asset list [-tenant ID] [-status STATUS]")
			os.Exit(1)
		}
		cmdAssetList(os.Args[3:])

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func cmdIncidentReport(args []string) {
	fs := flag.NewFlagSet("incident report", flag.ExitOnError)
	apiURL := fs.String("api", "http://localhost:8080", "Core API base URL")
	apiKey := fs.String("key", "", "API key (default: MEDIAVAULT_API_KEY env var)")
	sourceType := fs.String("source-type", "manual", "Source type (asset, job, storage, manual)")
	sourceID := fs.String("source-id", "", "Source ID")
	tenantID := fs.String("tenant", "", "Tenant ID")
	title := fs.String("title", "", "Incident title (required)")
	message := fs.String("message", "", "Incident message")
	severity := fs.String("severity", "", "Severity (info, warning, error, critical; classified when omitted)")
	retryable := fs.Bool("retryable", false, "Mark the incident retryable")
	signature := fs.String("signature", "", "Unique signature for dedup")
	fs.Parse(args)

	if *title == "" {
		fmt.Fprintln(os.Stderr, "Error: -title flag is required")
		fs.Usage()
		os.Exit(1)
	}

	err := ctl.ReportIncident(*apiURL, *apiKey, ctl.ReportParams{
		SourceType:      *sourceType,
		SourceID:        *sourceID,
		TenantID:        *tenantID,
		Title:           *title,
		Message:         *message,
		Severity:        *severity,
		Retryable:       *retryable,
		UniqueSignature: *signature,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdIncidentList(args []string) {
	fs := flag.NewFlagSet("incident list", flag.ExitOnError)
	apiURL := fs.String("api", "http://localhost:8080", "Core API base URL")
	apiKey := fs.String("key", "", "API key (default: MEDIAVAULT_API_KEY env var)")
	tenantID := fs.String("tenant", "", "Filter by tenant ID")
	severity := fs.String("severity", "", "Filter by severity")
	sourceType := fs.String("source-type", "", "Filter by source type")
	status := fs.String("status", "open", "Filter by status (open, resolved, all)")
	limit := fs.Int("limit", 50, "Page size")
	fs.Parse(args)

	filterStatus := *status
	if filterStatus == "all" {
		filterStatus = ""
	}

	err := ctl.ListIncidents(*apiURL, *apiKey, ctl.IncidentFilters{
		TenantID:   *tenantID,
		Severity:   *severity,
		SourceType: *sourceType,
		Status:     filterStatus,
		Limit:      *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdIncidentRecover(args []string) {
	fs := flag.NewFlagSet("incident recover", flag.ExitOnError)
	apiURL := fs.String("api", "http://localhost:8080", "Core API base URL")
	apiKey := fs.String("key", "", "API key (default: MEDIAVAULT_API_KEY env var)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: vaultctl incident recover [-api URL] <incident-id>")
		os.Exit(1)
	}

	if err := ctl.RecoverIncident(*apiURL, *apiKey, fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdAssetList(args []string) {
	fs := flag.NewFlagSet("asset list", flag.ExitOnError)
	apiURL := fs.String("api", "http://localhost:8080", "Core API base URL")
	apiKey := fs.String("key", "", "API key (default: MEDIAVAULT_API_KEY env var)")
	tenantID := fs.String("tenant", "", "Filter by tenant ID")
	brandID := fs.String("brand", "", "Filter by brand ID")
	status := fs.String("status", "", "Filter by status")
	limit := fs.Int("limit", 50, "Page size")
	fs.Parse(args)

	err := ctl.ListAssets(*apiURL, *apiKey, ctl.AssetFilters{
		TenantID: *tenantID,
		BrandID:  *brandID,
		Status:   *status,
		Limit:    *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  vaultctl seed -f <seed-definition.yaml>
  vaultctl incident report -title <title> [-source-type TYPE] [-source-id ID] [-severity SEV]
  vaultctl incident list [-status open|resolved|all] [-severity SEV] [-tenant ID]
  vaultctl incident recover [-api URL] <incident-id>
  vaultctl asset list [-tenant ID] [-brand ID] [-status STATUS]

Commands:
  seed              Bootstrap tenants, brands and API keys from a YAML definition
  incident report   Record an incident against a source
  incident list     List incidents (open by default)
  incident recover  Run the self-healing repair chain against an incident
  asset list        List assets

Flags:
  -f string    Path to YAML seed definition (required for seed)
  -api string  Core API base URL (default: http://localhost:8080)
  -key string  API key (default: MEDIAVAULT_API_KEY env var)`)
}
