package policy

import (
	"testing"

	"deploykit/reconciler-service/pkg/model"
)

func Test_Blocked(t *testing.T) {
	rules := []model.ImagePatternsBlockRule{
		{
			EnvironmentSelector: map[string]string{"tier": "prod", "region": "eu"},
			BlockedPatterns:     []string{"registry.experimental/"},
		},
		{
			EnvironmentSelector: map[string]string{},
			BlockedPatterns:     []string{"docker.io/library/untrusted"},
		},
	}
	tests := []struct {
		name        string
		labels      map[string]string
		images      []string
		wantBlocked bool
		wantPattern string
	}{
		{
			name:        "selector matches and image blocked",
			labels:      map[string]string{"tier": "prod", "region": "eu", "extra": "x"},
			images:      []string{"registry.experimental/shop:1"},
			wantBlocked: true,
			wantPattern: "registry.experimental/",
		},
		{
			name:   "partial selector match does not block",
			labels: map[string]string{"tier": "prod"},
			images: []string{"registry.experimental/shop:1"},
		},
		{
			name:        "empty selector matches every environment",
			labels:      map[string]string{"tier": "dev"},
			images:      []string{"docker.io/library/untrusted:latest"},
			wantBlocked: true,
			wantPattern: "docker.io/library/untrusted",
		},
		{
			name:   "image outside patterns passes",
			labels: map[string]string{"tier": "prod", "region": "eu"},
			images: []string{"registry.internal/shop:1"},
		},
		{
			name:   "no images passes",
			labels: map[string]string{"tier": "prod", "region": "eu"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotBlocked, gotPattern := Blocked(rules, tt.labels, tt.images)
			if gotBlocked != tt.wantBlocked || gotPattern != tt.wantPattern {
				t.Errorf("Blocked() = (%v, %v), want (%v, %v)", gotBlocked, gotPattern, tt.wantBlocked, tt.wantPattern)
			}
		})
	}
}
