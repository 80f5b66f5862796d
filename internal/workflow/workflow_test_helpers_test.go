package workflow

import (
	"go.temporal.io/sdk/testsuite"

	"github.com/solvik/mediavault/internal/activity"
)

func strPtr(s string) *string { return &s }

// registerActivities registers activity structs with the test workflow
// environment so that parameter and return types can be deserialized correctly
// by the Temporal test framework. In unit tests, all activities are mocked via
// OnActivity, but the framework still needs the type information for proper
// serialization/deserialization of activity parameters and return values.
func registerActivities(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivity(&activity.Asset{})
	env.RegisterActivity(&activity.Incident{})
	env.RegisterActivity(&activity.Webhook{})
}
