// Package api provides the MediaVault REST API.
//
//	@title						MediaVault API
//	@version					1.0
//	@description				Multi-tenant digital asset management API
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package api
