package cli

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		wantW   int
		wantH   int
		wantErr bool
	}{
		{"800x600", 800, 600, false},
		{"1x1", 1, 1, false},
		{"1920x1080", 1920, 1080, false},
		{"800", 0, 0, true},
		{"800x", 0, 0, true},
		{"x600", 0, 0, true},
		{"0x600", 0, 0, true},
		{"800x-1", 0, 0, true},
		{"axb", 0, 0, true},
		{"", 0, 0, true},
		{"100%x200", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, h, err := parseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.input, w, h, tt.wantW, tt.wantH)
			}
			// The rejected input appears verbatim in the message, percent
			// signs included.
			if err != nil && tt.input != "" && !strings.Contains(err.Error(), tt.input) {
				t.Errorf("error %q does not quote input %q", err, tt.input)
			}
		})
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"render", "explore", "serve", "presets", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestLoadPresetBuiltin(t *testing.T) {
	p, err := loadPreset("seahorse-valley")
	if err != nil {
		t.Fatalf("loadPreset: %v", err)
	}
	if p.Name != "seahorse-valley" {
		t.Errorf("loaded preset %q", p.Name)
	}

	if _, err := loadPreset("not-a-preset"); err == nil {
		t.Error("loadPreset accepted unknown name")
	}
}
