//go:build tools

package tools

import (
	// swag generates internal/api/docs/swagger.json from the handler
	// annotations.
	_ "github.com/swaggo/swag/cmd/swag"
)
