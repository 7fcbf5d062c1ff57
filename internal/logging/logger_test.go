package logging

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestLevelSelection(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want hclog.Level
	}{
		{"default", Options{}, hclog.Info},
		{"verbose", Options{Verbose: true, Level: "error"}, hclog.Debug},
		{"quiet", Options{Quiet: true}, hclog.Error},
		{"named level", Options{Level: "WARN"}, hclog.Warn},
		{"unknown level", Options{Level: "loud"}, hclog.Info},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, level(tt.opts))
		})
	}
}

func TestSuccessCarriesResultField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})

	Success(l, "plugin installed", "plugin", "trezor")

	out := buf.String()
	assert.Contains(t, out, "plugin installed")
	assert.Contains(t, out, "result=success")
	assert.Contains(t, out, "plugin=trezor")
}

func TestQuietSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Quiet: true})

	l.Info("hidden")
	l.Error("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	l := Discard()
	assert.Equal(t, l, OrDiscard(l))
}
