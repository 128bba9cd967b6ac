package littleplanet

import (
	"errors"
	"math"
	"testing"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{
			name:   "valid defaults",
			params: DefaultParams(800, 600),
		},
		{
			name:   "valid with rotation and offsets",
			params: Params{Scale: 2.5, Alpha: 1, Beta: -0.5, Gamma: 3, OffsetHor: 0.25, OffsetVer: 0.75, Width: 64, Height: 64},
		},
		{
			name:    "zero scale",
			params:  Params{Scale: 0, OffsetHor: 0.5, OffsetVer: 0.5, Width: 100, Height: 100},
			wantErr: ErrNonPositiveScale,
		},
		{
			name:    "negative scale",
			params:  Params{Scale: -1, OffsetHor: 0.5, OffsetVer: 0.5, Width: 100, Height: 100},
			wantErr: ErrNonPositiveScale,
		},
		{
			name:    "NaN scale",
			params:  Params{Scale: math.NaN(), OffsetHor: 0.5, OffsetVer: 0.5, Width: 100, Height: 100},
			wantErr: ErrNonPositiveScale,
		},
		{
			name:    "zero width",
			params:  Params{Scale: 1, OffsetHor: 0.5, OffsetVer: 0.5, Width: 0, Height: 100},
			wantErr: ErrNonPositiveSize,
		},
		{
			name:    "negative height",
			params:  Params{Scale: 1, OffsetHor: 0.5, OffsetVer: 0.5, Width: 100, Height: -3},
			wantErr: ErrNonPositiveSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParamsRadius(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   float64
	}{
		{"square at scale 1", Params{Scale: 1, Width: 100, Height: 100}, 10},
		{"landscape uses height", Params{Scale: 1, Width: 800, Height: 600}, 60},
		{"portrait uses width", Params{Scale: 1, Width: 600, Height: 800}, 60},
		{"scale doubles radius", Params{Scale: 2, Width: 800, Height: 600}, 120},
		{"fractional scale", Params{Scale: 0.5, Width: 100, Height: 200}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Radius(); got != tt.want {
				t.Errorf("Radius() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultParamsCentered(t *testing.T) {
	p := DefaultParams(320, 240)
	if p.OffsetHor != 0.5 || p.OffsetVer != 0.5 {
		t.Errorf("offsets = (%v, %v), want (0.5, 0.5)", p.OffsetHor, p.OffsetVer)
	}
	if p.Scale != 1 {
		t.Errorf("scale = %v, want 1", p.Scale)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestEdgePolicyString(t *testing.T) {
	if got := EdgeWrap.String(); got != "Wrap" {
		t.Errorf("EdgeWrap.String() = %q", got)
	}
	if got := EdgeDiscard.String(); got != "Discard" {
		t.Errorf("EdgeDiscard.String() = %q", got)
	}
	if got := ZClampUpper.String(); got != "Upper" {
		t.Errorf("ZClampUpper.String() = %q", got)
	}
	if got := ZClampBoth.String(); got != "Both" {
		t.Errorf("ZClampBoth.String() = %q", got)
	}
}
