package cli

import (
	"testing"

	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in      string
		want    importer.ConflictResolution
		wantErr string
	}{
		{in: "Meditate=merge", want: importer.ConflictResolution{EntityName: "Meditate", Resolution: importer.ResolutionMerge}},
		{in: " Read = SKIP ", want: importer.ConflictResolution{EntityName: "Read", Resolution: importer.ResolutionSkip}},
		{in: "Run=replace", want: importer.ConflictResolution{EntityName: "Run", Resolution: importer.ResolutionReplace}},
		{
			in:   "Meditate=rename:Morning Meditate",
			want: importer.ConflictResolution{EntityName: "Meditate", Resolution: importer.ResolutionRename, NewName: "Morning Meditate"},
		},
		{in: "Meditate", wantErr: "must look like"},
		{in: "=merge", wantErr: "must look like"},
		{in: "Meditate=rename", wantErr: "needs a new name"},
		{in: "Meditate=merge:Other", wantErr: "only rename"},
		{in: "Meditate=explode", wantErr: "unknown decision"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseResolution(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolutionFlag_Repeats(t *testing.T) {
	var f resolutionFlag
	require.NoError(t, f.Set("A=merge"))
	require.NoError(t, f.Set("B=rename:C"))
	assert.Len(t, f.values, 2)
	assert.Equal(t, "[A=merge,B=rename:C]", f.String())
	assert.Error(t, f.Set("bad"))
	assert.Len(t, f.values, 2)
}
