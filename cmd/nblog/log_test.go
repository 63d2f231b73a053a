package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []string
		want   []any
	}{
		{"none", "plain text", nil, nil},
		{"all kinds", "%s %d %f %t", []string{"x", "-3", "0.5", "1500000000"}, []any{"x", int32(-3), float32(0.5), int64(1500000000)}},
		{"pid and percent take nothing", "%p 100%% %d", []string{"7"}, []any{int32(7)}},
		{"trailing percent", "done %", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatArgs(tt.format, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		args    []string
		wantErr string
	}{
		{"missing", "%d %d", []string{"1"}, "missing argument for %d"},
		{"not an int", "%d", []string{"one"}, "argument 1 for %d"},
		{"int32 overflow", "%d", []string{"4294967296"}, "argument 1 for %d"},
		{"not a float", "%f", []string{"half"}, "argument 1 for %f"},
		{"unknown", "%x", []string{"1"}, "unsupported specifier %x"},
		{"unused", "%s", []string{"a", "b"}, "1 unused arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := formatArgs(tt.format, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
