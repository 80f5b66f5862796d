package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfiles(t *testing.T) {
	data := []byte(`
profiles:
  - name: thumb
    max_width: 200
    max_height: 200
    thumbnail: true
  - name: banner
    max_width: 1600
`)
	set, err := ParseProfiles(data)
	require.NoError(t, err)
	require.Len(t, set.Profiles, 2)
	assert.Equal(t, "thumb", set.Profiles[0].Name)
	assert.True(t, set.Profiles[0].Thumbnail)
	assert.Equal(t, 1600, set.Profiles[1].MaxWidth)
	assert.Equal(t, 0, set.Profiles[1].MaxHeight)
}

func TestParseProfiles_EmptyFallsBackToDefaults(t *testing.T) {
	set, err := ParseProfiles([]byte("profiles: []"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfiles(), set)
}

func TestParseProfiles_RejectsUnnamed(t *testing.T) {
	_, err := ParseProfiles([]byte("profiles:\n  - max_width: 100\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a name")
}

func TestParseProfiles_RejectsUnbounded(t *testing.T) {
	_, err := ParseProfiles([]byte("profiles:\n  - name: huge\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no bounds")
}

func TestLoadProfiles_EmptyPathUsesDefaults(t *testing.T) {
	set, err := LoadProfiles("")
	require.NoError(t, err)
	require.NotEmpty(t, set.Profiles)
	require.NotEmpty(t, set.Thumbnails())
}

func TestProfileSet_Thumbnails(t *testing.T) {
	set := &ProfileSet{Profiles: []Profile{
		{Name: "thumb", MaxWidth: 320, Thumbnail: true},
		{Name: "preview", MaxWidth: 1280},
	}}
	thumbs := set.Thumbnails()
	require.Len(t, thumbs, 1)
	assert.Equal(t, "thumb", thumbs[0].Name)
}

func TestProfile_Fit(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		w, h    int
		wantW   int
		wantH   int
	}{
		{"landscape within bounds", Profile{MaxWidth: 320, MaxHeight: 320}, 200, 100, 200, 100},
		{"landscape scaled by width", Profile{MaxWidth: 320, MaxHeight: 320}, 1920, 1080, 320, 180},
		{"portrait scaled by height", Profile{MaxWidth: 320, MaxHeight: 320}, 1080, 1920, 180, 320},
		{"width-only bound", Profile{MaxWidth: 1600}, 3200, 1000, 1600, 500},
		{"height tighter than width", Profile{MaxWidth: 2400, MaxHeight: 1600}, 4800, 4800, 1600, 1600},
		{"zero source", Profile{MaxWidth: 320}, 0, 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.profile.Fit(tt.w, tt.h)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}
