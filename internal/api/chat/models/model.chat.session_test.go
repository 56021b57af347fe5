package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAILeaseHeld(t *testing.T) {
	now := time.Now()
	ttl := 5 * time.Minute

	tests := []struct {
		name  string
		lease AILease
		want  bool
	}{
		{
			name:  "zero lease is free",
			lease: AILease{},
			want:  false,
		},
		{
			name:  "holder without timestamp is free",
			lease: AILease{HolderID: "gen-1"},
			want:  false,
		},
		{
			name:  "fresh lease is held",
			lease: AILease{HolderID: "gen-1", AcquiredAt: now.Add(-1 * time.Minute).UnixMilli()},
			want:  true,
		},
		{
			name:  "lease past ttl is free",
			lease: AILease{HolderID: "gen-1", AcquiredAt: now.Add(-10 * time.Minute).UnixMilli()},
			want:  false,
		},
		{
			name:  "lease exactly at ttl is free",
			lease: AILease{HolderID: "gen-1", AcquiredAt: now.Add(-ttl).UnixMilli()},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lease.Held(now, ttl))
		})
	}
}
