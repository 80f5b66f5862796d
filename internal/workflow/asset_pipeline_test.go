package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/solvik/mediavault/internal/activity"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/reliability"
)

// ---------- ProcessAssetWorkflow ----------

type ProcessAssetWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *ProcessAssetWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *ProcessAssetWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *ProcessAssetWorkflowTestSuite) TestHappyPath() {
	assetID := "ast_1"

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessing,
	}).Return(nil)
	s.env.OnActivity("ProbeAsset", mock.Anything, assetID).Return(&activity.ProbeResult{
		Width:  1920,
		Height: 1080,
		Format: "png",
	}, nil)
	s.env.OnActivity("GenerateRenditions", mock.Anything, activity.GenerateRenditionsParams{
		AssetID: assetID,
	}).Return(&activity.GenerateRenditionsResult{
		Profiles: []string{"thumb", "preview", "hero"},
	}, nil)
	s.env.OnActivity("PromoteAsset", mock.Anything, assetID).Return(nil)

	// Reconcile flips the asset to processed once renditions and dimensions
	// line up, then the workflow clears any incidents it left behind.
	s.env.OnActivity("ReconcileAsset", mock.Anything, assetID).Return(&activity.ReconcileResult{
		Status: model.AssetProcessed,
	}, nil)
	s.env.OnActivity("ResolveIncidentsBySource", mock.Anything, activity.ResolveBySourceParams{
		SourceType: model.SourceAsset,
		SourceID:   assetID,
	}).Return(1, nil)

	s.env.ExecuteWorkflow(ProcessAssetWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessAssetWorkflowTestSuite) TestNonImageSkipsRenditions() {
	assetID := "ast_pdf"

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessing,
	}).Return(nil)
	s.env.OnActivity("ProbeAsset", mock.Anything, assetID).Return(&activity.ProbeResult{
		Skipped: true,
	}, nil)
	s.env.OnActivity("PromoteAsset", mock.Anything, assetID).Return(nil)

	// No renditions to reconcile against, so the workflow completes the
	// asset directly.
	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessed,
	}).Return(nil)
	s.env.OnActivity("ResolveIncidentsBySource", mock.Anything, activity.ResolveBySourceParams{
		SourceType: model.SourceAsset,
		SourceID:   assetID,
	}).Return(0, nil)

	s.env.ExecuteWorkflow(ProcessAssetWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessAssetWorkflowTestSuite) TestProbeFailureReportsIncident() {
	assetID := "ast_gone"

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessing,
	}).Return(nil)
	s.env.OnActivity("ProbeAsset", mock.Anything, assetID).Return(nil,
		temporal.NewNonRetryableApplicationError("object tenants/t/assets/a/original/x.png not found", "OBJECT_MISSING", nil))

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetFailed,
	}).Return(nil)

	// A missing source object cannot heal on retry, so the incident is
	// reported as non-retryable.
	s.env.OnActivity("CreateIncident", mock.Anything, mock.MatchedBy(func(params activity.CreateIncidentParams) bool {
		return params.SourceType == model.SourceAsset &&
			params.SourceID == assetID &&
			params.Context == reliability.ContextVisualMetadataMissing &&
			params.Title == reliability.TitleVisualMetadataMissing &&
			!params.Retryable
	})).Return(&activity.CreateIncidentResult{ID: "inc_test", Severity: string(model.SeverityWarning)}, nil)

	s.env.ExecuteWorkflow(ProcessAssetWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *ProcessAssetWorkflowTestSuite) TestRenditionFailureReportsIncident() {
	assetID := "ast_2"

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessing,
	}).Return(nil)
	s.env.OnActivity("ProbeAsset", mock.Anything, assetID).Return(&activity.ProbeResult{
		Width:  800,
		Height: 600,
		Format: "jpeg",
	}, nil)
	s.env.OnActivity("GenerateRenditions", mock.Anything, activity.GenerateRenditionsParams{
		AssetID: assetID,
	}).Return(nil, fmt.Errorf("write rendition thumb: disk full"))

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetFailed,
	}).Return(nil)

	// Transient storage failure, so the incident stays retryable and the
	// recovery sweep can re-dispatch the renditions later.
	s.env.OnActivity("CreateIncident", mock.Anything, mock.MatchedBy(func(params activity.CreateIncidentParams) bool {
		return params.Title == "Thumbnail generation failed" &&
			params.Severity == string(model.SeverityWarning) &&
			params.Retryable
	})).Return(&activity.CreateIncidentResult{ID: "inc_test", Severity: string(model.SeverityWarning)}, nil)

	s.env.ExecuteWorkflow(ProcessAssetWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *ProcessAssetWorkflowTestSuite) TestPromotionFailureMarksPromotionFailed() {
	assetID := "ast_3"

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessing,
	}).Return(nil)
	s.env.OnActivity("ProbeAsset", mock.Anything, assetID).Return(&activity.ProbeResult{
		Width:  800,
		Height: 600,
		Format: "jpeg",
	}, nil)
	s.env.OnActivity("GenerateRenditions", mock.Anything, activity.GenerateRenditionsParams{
		AssetID: assetID,
	}).Return(&activity.GenerateRenditionsResult{Profiles: []string{"thumb"}}, nil)
	s.env.OnActivity("PromoteAsset", mock.Anything, assetID).Return(fmt.Errorf("copy to public prefix: access denied"))

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetPromotionFailed,
	}).Return(nil)
	s.env.OnActivity("CreateIncident", mock.Anything, mock.MatchedBy(func(params activity.CreateIncidentParams) bool {
		return params.Title == "Asset promotion failed" &&
			params.Severity == string(model.SeverityError) &&
			params.Retryable
	})).Return(&activity.CreateIncidentResult{ID: "inc_test", Severity: string(model.SeverityError)}, nil)

	s.env.ExecuteWorkflow(ProcessAssetWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func (s *ProcessAssetWorkflowTestSuite) TestStatusUpdateFailureAborts() {
	assetID := "ast_4"

	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessing,
	}).Return(fmt.Errorf("db connection lost"))

	s.env.ExecuteWorkflow(ProcessAssetWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

// ---------- RegenerateThumbnailsWorkflow ----------

type RegenerateThumbnailsWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *RegenerateThumbnailsWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *RegenerateThumbnailsWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *RegenerateThumbnailsWorkflowTestSuite) TestRegeneratesAndReconciles() {
	assetID := "ast_5"

	s.env.OnActivity("GenerateRenditions", mock.Anything, activity.GenerateRenditionsParams{
		AssetID:        assetID,
		ThumbnailsOnly: true,
	}).Return(&activity.GenerateRenditionsResult{Profiles: []string{"thumb"}}, nil)
	s.env.OnActivity("ReconcileAsset", mock.Anything, assetID).Return(&activity.ReconcileResult{
		Status: model.AssetProcessed,
	}, nil)

	s.env.ExecuteWorkflow(RegenerateThumbnailsWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *RegenerateThumbnailsWorkflowTestSuite) TestGenerateFails() {
	assetID := "ast_6"

	s.env.OnActivity("GenerateRenditions", mock.Anything, activity.GenerateRenditionsParams{
		AssetID:        assetID,
		ThumbnailsOnly: true,
	}).Return(nil, fmt.Errorf("storage unavailable"))

	s.env.ExecuteWorkflow(RegenerateThumbnailsWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

// ---------- RetryPromotionWorkflow ----------

type RetryPromotionWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *RetryPromotionWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *RetryPromotionWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *RetryPromotionWorkflowTestSuite) TestPromotesAndCompletes() {
	assetID := "ast_7"

	s.env.OnActivity("PromoteAsset", mock.Anything, assetID).Return(nil)

	// Reconcile never touches promotion_failed, so the workflow completes
	// the asset itself after a successful promote.
	s.env.OnActivity("SetAssetStatus", mock.Anything, activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessed,
	}).Return(nil)

	s.env.ExecuteWorkflow(RetryPromotionWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *RetryPromotionWorkflowTestSuite) TestPromoteStillFailing() {
	assetID := "ast_8"

	s.env.OnActivity("PromoteAsset", mock.Anything, assetID).Return(fmt.Errorf("copy to public prefix: access denied"))

	s.env.ExecuteWorkflow(RetryPromotionWorkflow, assetID)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

// ---------- Run ----------

func TestProcessAssetWorkflow(t *testing.T) {
	suite.Run(t, new(ProcessAssetWorkflowTestSuite))
}

func TestRegenerateThumbnailsWorkflow(t *testing.T) {
	suite.Run(t, new(RegenerateThumbnailsWorkflowTestSuite))
}

func TestRetryPromotionWorkflow(t *testing.T) {
	suite.Run(t, new(RetryPromotionWorkflowTestSuite))
}
