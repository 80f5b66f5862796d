package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SwaggerSpec is the subset of a Swagger 2.0 document the tool builder reads.
type SwaggerSpec struct {
	BasePath    string                          `json:"basePath"`
	Paths       map[string]map[string]Operation `json:"paths"`
	Definitions map[string]json.RawMessage      `json:"definitions"`
}

// Operation represents a single API operation.
type Operation struct {
	Tags        []string                   `json:"tags"`
	Summary     string                     `json:"summary"`
	Description string                     `json:"description"`
	OperationID string                     `json:"operationId"`
	Parameters  []Parameter                `json:"parameters"`
	Responses   map[string]json.RawMessage `json:"responses"`
}

// Parameter represents an API parameter.
type Parameter struct {
	Name        string          `json:"name"`
	In          string          `json:"in"`
	Required    bool            `json:"required"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Default     any             `json:"default"`
	Schema      json.RawMessage `json:"schema"`
	Enum        []any           `json:"enum"`
	Format      string          `json:"format"`
}

// ToolOperation holds the data needed to proxy a tool call.
type ToolOperation struct {
	Method     string
	Path       string // URL path template with {param} placeholders
	Parameters []Parameter
}

// ParseSpec parses a Swagger 2.0 JSON spec.
func ParseSpec(data []byte) (*SwaggerSpec, error) {
	var spec SwaggerSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse swagger spec: %w", err)
	}
	return &spec, nil
}

// BuildTools turns every tagged operation in the spec into an MCP tool,
// keyed by the config group its first tag maps to. Operations whose tags
// match no group are not exposed. The second return maps tool names to the
// proxied operation for request dispatch.
func BuildTools(spec *SwaggerSpec, cfg *Config, proxyFn func(op ToolOperation) server.ToolHandlerFunc) (map[string][]server.ServerTool, map[string]ToolOperation) {
	tagMap := cfg.tagToGroup()
	groups := make(map[string][]server.ServerTool)
	operations := make(map[string]ToolOperation)

	for path, methods := range spec.Paths {
		for method, op := range methods {
			method = strings.ToUpper(method)

			group := groupFor(op, tagMap)
			if group == "" {
				continue
			}

			name, opts, ok := assembleTool(method, path, op, cfg)
			if !ok {
				continue
			}

			proxied := ToolOperation{
				Method:     method,
				Path:       spec.BasePath + path,
				Parameters: op.Parameters,
			}
			groups[group] = append(groups[group], server.ServerTool{
				Tool:    mcp.NewTool(name, opts...),
				Handler: proxyFn(proxied),
			})
			operations[name] = proxied
		}
	}

	return groups, operations
}

func groupFor(op Operation, tagMap map[string]string) string {
	if len(op.Tags) == 0 {
		return ""
	}
	return tagMap[op.Tags[0]]
}

// assembleTool resolves the override for an operation and produces the tool
// name and options. ok is false when the operation is configured away.
func assembleTool(method, path string, op Operation, cfg *Config) (string, []mcp.ToolOption, bool) {
	name := deriveName(method, path, op)
	override := cfg.Overrides[name]
	if override.Skip {
		return "", nil, false
	}
	if override.Name != "" {
		name = override.Name
	}

	desc := op.Description
	if desc == "" {
		desc = op.Summary
	}
	if override.Description != "" {
		desc = override.Description
	}

	opts := []mcp.ToolOption{mcp.WithDescription(desc)}
	opts = append(opts, annotationOpts(cfg.Defaults[method], override)...)
	opts = append(opts, paramToolOpts(op.Parameters)...)
	return name, opts, true
}

// annotationOpts merges the per-method annotation defaults with any per-tool
// override. A nil hint emits no annotation at all.
func annotationOpts(defaults MethodDefaults, override ToolOverride) []mcp.ToolOption {
	pick := func(base, over *bool) *bool {
		if over != nil {
			return over
		}
		return base
	}

	var opts []mcp.ToolOption
	if v := pick(defaults.ReadOnly, override.ReadOnly); v != nil {
		opts = append(opts, mcp.WithReadOnlyHintAnnotation(*v))
	}
	if v := pick(defaults.Destructive, override.Destructive); v != nil {
		opts = append(opts, mcp.WithDestructiveHintAnnotation(*v))
	}
	if v := pick(defaults.Idempotent, override.Idempotent); v != nil {
		opts = append(opts, mcp.WithIdempotentHintAnnotation(*v))
	}
	return opts
}

func paramToolOpts(params []Parameter) []mcp.ToolOption {
	var opts []mcp.ToolOption
	for _, p := range params {
		switch p.In {
		case "path", "formData":
			opts = append(opts, mcp.WithString(p.Name, propertyOpts(p)...))
		case "query":
			switch p.Type {
			case "integer", "number":
				opts = append(opts, mcp.WithNumber(p.Name, propertyOpts(p)...))
			case "boolean":
				opts = append(opts, mcp.WithBoolean(p.Name, propertyOpts(p)...))
			default:
				opts = append(opts, mcp.WithString(p.Name, propertyOpts(p)...))
			}
		case "body":
			opts = append(opts, bodyOpt(p))
		}
	}
	return opts
}

// bodyOpt surfaces a body parameter as a single string argument named
// "body" holding the JSON object; the proxy decodes it before forwarding.
func bodyOpt(p Parameter) mcp.ToolOption {
	desc := p.Description
	if desc == "" {
		desc = "Request body (JSON object)"
	}
	popts := []mcp.PropertyOption{mcp.Description(desc)}
	if p.Required {
		popts = append(popts, mcp.Required())
	}
	return mcp.WithString("body", popts...)
}

func propertyOpts(p Parameter) []mcp.PropertyOption {
	desc := p.Description
	if desc == "" {
		desc = p.Name
	}
	opts := []mcp.PropertyOption{mcp.Description(desc)}
	if p.Required {
		opts = append(opts, mcp.Required())
	}
	if len(p.Enum) > 0 {
		vals := make([]string, 0, len(p.Enum))
		for _, v := range p.Enum {
			vals = append(vals, fmt.Sprint(v))
		}
		opts = append(opts, mcp.Enum(vals...))
	}
	return opts
}

// deriveName builds a snake_case tool name from the HTTP method and path.
// Collection GETs become list_*, item GETs get_*, and trailing action
// segments (POST /assets/{id}/reprocess) become verb_resource names.
func deriveName(method, path string, _ Operation) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")

	var resources []string
	for _, p := range parts {
		if !isParam(p) {
			resources = append(resources, strings.ReplaceAll(p, "-", "_"))
		}
	}
	if len(resources) == 0 {
		return strings.ToLower(method)
	}

	last := resources[len(resources)-1]
	endsWithParam := isParam(parts[len(parts)-1])

	switch method {
	case "GET":
		if endsWithParam {
			return "get_" + singularize(last)
		}
		if last == "stats" && len(resources) >= 2 {
			return "get_" + resources[len(resources)-2] + "_stats"
		}
		if last == "search" {
			return "search"
		}
		return "list_" + last

	case "POST":
		if !endsWithParam && len(parts) >= 2 && isParam(parts[len(parts)-2]) {
			// Nested collection under a parent ID, or an action verb.
			if looksLikeCollection(last) {
				return "create_" + singularize(last)
			}
			return last + "_" + singularize(parentResource(resources))
		}
		return "create_" + singularize(last)

	case "PUT":
		if !endsWithParam && len(resources) >= 2 {
			return "set_" + singularize(parentResource(resources)) + "_" + last
		}
		return "update_" + singularize(last)

	case "DELETE":
		if !endsWithParam && len(resources) >= 2 {
			return "delete_" + singularize(parentResource(resources)) + "_" + last
		}
		return "delete_" + singularize(last)
	}

	return strings.ToLower(method) + "_" + last
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{")
}

func parentResource(resources []string) string {
	if len(resources) >= 2 {
		return resources[len(resources)-2]
	}
	return "unknown"
}

// looksLikeCollection returns true if the segment name looks plural.
// Action verbs ending in a double s ("reprocess") are not collections.
func looksLikeCollection(s string) bool {
	return strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss")
}

// singularize performs a simple English singularization.
func singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ses"), strings.HasSuffix(s, "xes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return s[:len(s)-1]
	}
	return s
}
