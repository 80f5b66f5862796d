package reliability

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvik/mediavault/internal/model"
)

func strPtr(v string) *string { return &v }

// ---------- VisualMetadataStrategy ----------

func TestVisualMetadataStrategy_Supports(t *testing.T) {
	s := NewVisualMetadataStrategy(newFakeAssetRepo(), &fakeReconciler{}, zerolog.Nop())

	assert.True(t, s.Supports(&model.Incident{Title: "Expected visual metadata missing"}))
	assert.True(t, s.Supports(&model.Incident{Title: "expected VISUAL metadata MISSING"}))
	assert.False(t, s.Supports(&model.Incident{Title: "Expected visual metadata missing!"}))
	assert.False(t, s.Supports(&model.Incident{Title: "Thumbnail generation failed"}))
}

func TestVisualMetadataStrategy_Attempt_NoSource(t *testing.T) {
	rec := &fakeReconciler{}
	s := NewVisualMetadataStrategy(newFakeAssetRepo(), rec, zerolog.Nop())

	res, err := s.Attempt(context.Background(), &model.Incident{Title: TitleVisualMetadataMissing})
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Empty(t, res.Changes)
	assert.Zero(t, rec.calls)
}

func TestVisualMetadataStrategy_Attempt_AssetMissing(t *testing.T) {
	rec := &fakeReconciler{}
	s := NewVisualMetadataStrategy(newFakeAssetRepo(), rec, zerolog.Nop())

	inc := &model.Incident{Title: TitleVisualMetadataMissing, SourceType: model.SourceAsset, SourceID: strPtr("ast_gone")}
	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Empty(t, res.Changes)
	assert.Zero(t, rec.calls)
}

func TestVisualMetadataStrategy_Attempt_ReconciliationCompletes(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", AnalysisStatus: model.AnalysisPending})
	rec := &fakeReconciler{
		changes: []Change{{Field: "analysis_status", From: model.AnalysisPending, To: model.AnalysisComplete}},
		onReconcile: func(*model.Asset) {
			repo.assets["ast_1"].AnalysisStatus = model.AnalysisComplete
		},
	}
	s := NewVisualMetadataStrategy(repo, rec, zerolog.Nop())

	inc := &model.Incident{Title: TitleVisualMetadataMissing, SourceType: model.SourceAsset, SourceID: strPtr("ast_1")}
	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, "analysis_status", res.Changes[0].Field)
}

func TestVisualMetadataStrategy_Attempt_StillIncomplete(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", AnalysisStatus: model.AnalysisPending})
	rec := &fakeReconciler{changes: []Change{{Field: "status", From: "uploaded", To: "processing"}}}
	s := NewVisualMetadataStrategy(repo, rec, zerolog.Nop())

	inc := &model.Incident{Title: TitleVisualMetadataMissing, SourceType: model.SourceAsset, SourceID: strPtr("ast_1")}
	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Len(t, res.Changes, 1)
}

func TestVisualMetadataStrategy_Attempt_ReconcileError(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1"})
	rec := &fakeReconciler{err: errors.New("db unavailable")}
	s := NewVisualMetadataStrategy(repo, rec, zerolog.Nop())

	inc := &model.Incident{Title: TitleVisualMetadataMissing, SourceType: model.SourceAsset, SourceID: strPtr("ast_1")}
	_, err := s.Attempt(context.Background(), inc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db unavailable")
}

// ---------- ThumbnailRetryStrategy ----------

func TestThumbnailRetryStrategy_Supports(t *testing.T) {
	store := newFakeIncidentStore()
	s := NewThumbnailRetryStrategy(newFakeAssetRepo(), &fakeReconciler{}, &fakeDispatcher{}, store, zerolog.Nop())

	tests := []struct {
		name string
		inc  model.Incident
		want bool
	}{
		{"asset source with thumbnail title", model.Incident{SourceType: model.SourceAsset, SourceID: strPtr("a"), Title: "Thumbnail generation failed"}, true},
		{"job source with thumbnail title", model.Incident{SourceType: model.SourceJob, SourceID: strPtr("a"), Title: "thumbnail job timed out"}, true},
		{"case insensitive match", model.Incident{SourceType: model.SourceAsset, SourceID: strPtr("a"), Title: "THUMBNAIL worker crash"}, true},
		{"no source id", model.Incident{SourceType: model.SourceAsset, Title: "Thumbnail generation failed"}, false},
		{"unrelated source type", model.Incident{SourceType: "webhook", SourceID: strPtr("a"), Title: "Thumbnail generation failed"}, false},
		{"unrelated title", model.Incident{SourceType: model.SourceAsset, SourceID: strPtr("a"), Title: "Promotion failed"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Supports(&tt.inc))
		})
	}
}

func TestThumbnailRetryStrategy_Attempt_DispatchesAndStamps(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	s := NewThumbnailRetryStrategy(repo, &fakeReconciler{}, disp, store, zerolog.Nop())

	inc := store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Thumbnail generation failed",
		Retryable:  true,
	})

	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Equal(t, []string{"ast_1"}, disp.thumbnails)
	assert.Empty(t, disp.processing)

	assert.True(t, inc.Metadata.Retried())
	assert.Equal(t, 1, inc.Metadata.RetryCount())
	assert.Contains(t, inc.Metadata, model.MetaRetriedAt)
}

func TestThumbnailRetryStrategy_Attempt_CappedRounds(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	s := NewThumbnailRetryStrategy(repo, &fakeReconciler{}, disp, store, zerolog.Nop())

	seeded := store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Thumbnail generation failed",
		Retryable:  true,
	})

	for i := 0; i < 5; i++ {
		inc, err := store.FindByID(context.Background(), seeded.ID)
		require.NoError(t, err)
		_, err = s.Attempt(context.Background(), inc)
		require.NoError(t, err)
	}

	assert.Len(t, disp.thumbnails, maxThumbnailRetries)
	assert.Equal(t, maxThumbnailRetries, store.incidents["inc_1"].Metadata.RetryCount())
}

func TestThumbnailRetryStrategy_Attempt_NotRetryable(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	s := NewThumbnailRetryStrategy(repo, &fakeReconciler{}, disp, store, zerolog.Nop())

	inc := store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Thumbnail generation failed",
	})

	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Zero(t, disp.total())
}

func TestThumbnailRetryStrategy_Attempt_ResolvedByReconciliation(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	rec := &fakeReconciler{
		changes: []Change{{Field: "analysis_status", From: model.AnalysisPending, To: model.AnalysisComplete}},
		onReconcile: func(*model.Asset) {
			repo.assets["ast_1"].AnalysisStatus = model.AnalysisComplete
		},
	}
	s := NewThumbnailRetryStrategy(repo, rec, disp, store, zerolog.Nop())

	inc := store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Thumbnail generation failed",
		Retryable:  true,
	})

	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Zero(t, disp.total(), "a repaired asset needs no new job")
}

// A stale in-memory incident must not sneak past the cap: the claim is
// decided on stored state, not on what this process last read.
func TestThumbnailRetryStrategy_Attempt_ClaimLostToStoredCount(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	s := NewThumbnailRetryStrategy(repo, &fakeReconciler{}, disp, store, zerolog.Nop())

	store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Thumbnail generation failed",
		Retryable:  true,
		Metadata:   model.Metadata{model.MetaRetryCount: maxThumbnailRetries},
	})

	stale := &model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Thumbnail generation failed",
		Retryable:  true,
	}

	_, err := s.Attempt(context.Background(), stale)
	require.NoError(t, err)
	assert.Zero(t, disp.total())
}

// ---------- JobRetryStrategy ----------

func TestJobRetryStrategy_Supports(t *testing.T) {
	store := newFakeIncidentStore()
	s := NewJobRetryStrategy(newFakeAssetRepo(), &fakeReconciler{}, &fakeDispatcher{}, store, zerolog.Nop())

	assert.True(t, s.Supports(&model.Incident{SourceType: model.SourceAsset, SourceID: strPtr("a"), Title: "Processing failed"}))
	assert.True(t, s.Supports(&model.Incident{SourceType: model.SourceJob, SourceID: strPtr("a"), Title: "Promotion failed"}))
	assert.False(t, s.Supports(&model.Incident{SourceType: model.SourceAsset, Title: "Processing failed"}))
	assert.False(t, s.Supports(&model.Incident{SourceType: "webhook", SourceID: strPtr("a"), Title: "Processing failed"}))
}

func TestJobRetryStrategy_Supports_DefersVisualMetadata(t *testing.T) {
	store := newFakeIncidentStore()
	jobRetry := NewJobRetryStrategy(newFakeAssetRepo(), &fakeReconciler{}, &fakeDispatcher{}, store, zerolog.Nop())
	visual := NewVisualMetadataStrategy(newFakeAssetRepo(), &fakeReconciler{}, zerolog.Nop())

	inc := &model.Incident{
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Expected visual metadata missing",
	}
	assert.False(t, jobRetry.Supports(inc))
	assert.True(t, visual.Supports(inc))

	// Case variations stay excluded too.
	inc.Title = "EXPECTED VISUAL METADATA MISSING"
	assert.False(t, jobRetry.Supports(inc))
	assert.True(t, visual.Supports(inc))
}

func TestJobRetryStrategy_Attempt_AtMostOneRetry(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", Status: model.AssetProcessing, AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	s := NewJobRetryStrategy(repo, &fakeReconciler{}, disp, store, zerolog.Nop())

	inc := store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Processing failed",
		Retryable:  true,
	})

	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Equal(t, []string{"ast_1"}, disp.processing)
	assert.True(t, inc.Metadata.Retried())

	// Second pass reconciles but must not dispatch again.
	rec2, err := store.FindByID(context.Background(), inc.ID)
	require.NoError(t, err)
	res, err = s.Attempt(context.Background(), rec2)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Equal(t, 1, disp.total())
}

func TestJobRetryStrategy_Attempt_PromotionFailedDispatch(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", Status: model.AssetPromotionFailed, AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	s := NewJobRetryStrategy(repo, &fakeReconciler{}, disp, store, zerolog.Nop())

	inc := store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Promotion failed",
		Retryable:  true,
	})

	_, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ast_1"}, disp.promotions)
	assert.Empty(t, disp.processing)
}

func TestJobRetryStrategy_Attempt_AssetMissing(t *testing.T) {
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{}
	s := NewJobRetryStrategy(newFakeAssetRepo(), &fakeReconciler{}, disp, store, zerolog.Nop())

	inc := &model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_gone"),
		Title:      "Processing failed",
		Retryable:  true,
	}
	res, err := s.Attempt(context.Background(), inc)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Empty(t, res.Changes)
	assert.Zero(t, disp.total())
}

func TestJobRetryStrategy_Attempt_DispatchError(t *testing.T) {
	repo := newFakeAssetRepo(&model.Asset{ID: "ast_1", Status: model.AssetProcessing, AnalysisStatus: model.AnalysisPending})
	store := newFakeIncidentStore()
	disp := &fakeDispatcher{dispatchErr: errors.New("temporal unavailable")}
	s := NewJobRetryStrategy(repo, &fakeReconciler{}, disp, store, zerolog.Nop())

	inc := store.add(&model.Incident{
		ID:         "inc_1",
		SourceType: model.SourceAsset,
		SourceID:   strPtr("ast_1"),
		Title:      "Processing failed",
		Retryable:  true,
	})

	_, err := s.Attempt(context.Background(), inc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporal unavailable")
}
