package capture

import "testing"

func TestDetectCommand(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"/commit", "/commit"},
		{"  /review src/main.go please", "/review"},
		{"/ns:sub-cmd arg", "/ns:sub-cmd"},
		{"/v1.2", "/v1.2"},
		{"/usr/bin/env python", ""},
		{"/1abc", ""},
		{"/", ""},
		{"please run /commit", ""},
		{"plain text", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			got := DetectCommand(tt.prompt)
			if tt.want == "" {
				if got != nil {
					t.Errorf("DetectCommand(%q) = %q, want nil", tt.prompt, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("DetectCommand(%q) = %v, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}
