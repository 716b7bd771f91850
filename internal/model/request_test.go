package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetMode(t *testing.T) {
	dist := 30.0

	tests := []struct {
		name    string
		request Request
		mode    TargetMode
		wantErr bool
	}{
		{
			name:    "country area",
			request: Request{ID: "r1", IsCountryArea: true},
			mode:    TargetCountry,
		},
		{
			name:    "zone list",
			request: Request{ID: "r2", ZoneIDs: []string{"z1", "z2"}},
			mode:    TargetZones,
		},
		{
			name:    "point radius",
			request: Request{ID: "r3", ZoneIDs: []string{"z1"}, DistanceKm: &dist},
			mode:    TargetRadius,
		},
		{
			name:    "country combined with zones",
			request: Request{ID: "r4", IsCountryArea: true, ZoneIDs: []string{"z1"}},
			wantErr: true,
		},
		{
			name:    "distance without zone",
			request: Request{ID: "r5", DistanceKm: &dist},
			wantErr: true,
		},
		{
			name:    "distance with several zones",
			request: Request{ID: "r6", ZoneIDs: []string{"z1", "z2"}, DistanceKm: &dist},
			wantErr: true,
		},
		{
			name:    "no target at all",
			request: Request{ID: "r7"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := tt.request.TargetMode()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrAmbiguousTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, mode)
		})
	}
}
