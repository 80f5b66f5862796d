package mcpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

const serverVersion = "1.0.0"

// Server exposes the REST API as MCP tool groups over streamable HTTP.
type Server struct {
	router chi.Router
	logger zerolog.Logger
	cfg    *Config
}

// groupInfo is one entry in the /mcp index listing.
type groupInfo struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint"`
	Tools       int    `json:"tools"`
	Description string `json:"description"`
}

// New builds the MCP server from the given config and swagger spec. Each
// tool group mounts under /mcp/<group>; /mcp/all carries every tool for
// agents that want full platform access.
func New(cfg *Config, specData []byte, logger zerolog.Logger) (*Server, error) {
	spec, err := ParseSpec(specData)
	if err != nil {
		return nil, err
	}

	proxy := NewProxyHandler(cfg.APIURL, logger)
	groups, _ := BuildTools(spec, cfg, proxy.Handler)

	// Mount in sorted order so logs and the index listing are stable
	// across restarts.
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	var index []groupInfo
	var allTools []server.ServerTool
	router.Route("/mcp", func(r chi.Router) {
		for _, name := range names {
			tools := groups[name]
			desc := cfg.Groups[name].Description
			if desc == "" {
				desc = "MediaVault " + name + " tools"
			}

			mountTools(r, "/"+name, "mediavault-"+name, desc, tools)
			index = append(index, groupInfo{
				Name:        name,
				Endpoint:    "/mcp/" + name,
				Tools:       len(tools),
				Description: cfg.Groups[name].Description,
			})
			allTools = append(allTools, tools...)

			logger.Info().Str("group", name).Int("tools", len(tools)).Msg("mounted MCP tool group")
		}

		// Unified endpoint for agents that need the whole surface at once.
		mountTools(r, "/all", "mediavault",
			"MediaVault digital asset management tools for tenants, brands, assets, incidents, tickets and platform operations.",
			allTools)
		index = append(index, groupInfo{
			Name:        "all",
			Endpoint:    "/mcp/all",
			Tools:       len(allTools),
			Description: "All tools from every group",
		})
		logger.Info().Int("tools", len(allTools)).Msg("mounted unified MCP endpoint at /mcp/all")

		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(index)
		})
	})

	return &Server{router: router, logger: logger, cfg: cfg}, nil
}

func mountTools(r chi.Router, path, name, instructions string, tools []server.ServerTool) {
	srv := server.NewMCPServer(name, serverVersion, server.WithInstructions(instructions))
	srv.AddTools(tools...)
	r.Mount(path, server.NewStreamableHTTPServer(srv, server.WithEndpointPath("/")))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

var specClient = &http.Client{Timeout: 15 * time.Second}

// FetchSpec downloads the swagger spec from the API.
func FetchSpec(apiURL, specPath string) ([]byte, error) {
	url := strings.TrimRight(apiURL, "/") + specPath
	resp, err := specClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch spec from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch spec from %s: HTTP %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
