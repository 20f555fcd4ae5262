package utils

import (
	"encoding/json"
	"testing"
)

func TestFirstObjectEntry(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKey   string
		wantValue string
		wantOK    bool
		wantErr   bool
	}{
		{
			name:      "document order, not sorted order",
			input:     `{"zeta": {"predicted_price": 1}, "alpha": {"predicted_price": 2}}`,
			wantKey:   "zeta",
			wantValue: `{"predicted_price": 1}`,
			wantOK:    true,
		},
		{
			name:      "scalar value",
			input:     `{"only": 55000}`,
			wantKey:   "only",
			wantValue: `55000`,
			wantOK:    true,
		},
		{
			name:   "empty object",
			input:  `{}`,
			wantOK: false,
		},
		{
			name:    "array",
			input:   `[1, 2]`,
			wantErr: true,
		},
		{
			name:    "truncated",
			input:   `{"a": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, ok, err := FirstObjectEntry(json.RawMessage(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("FirstObjectEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Errorf("FirstObjectEntry() ok = %v, want %v", ok, tt.wantOK)
			}
			if key != tt.wantKey {
				t.Errorf("FirstObjectEntry() key = %q, want %q", key, tt.wantKey)
			}
			if tt.wantValue != "" && string(value) != tt.wantValue {
				t.Errorf("FirstObjectEntry() value = %s, want %s", value, tt.wantValue)
			}
		})
	}
}
