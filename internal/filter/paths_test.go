package filter

import "testing"

func TestPathSanitizer_Sanitize(t *testing.T) {
	s := PathSanitizer{Home: "/home/alex"}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"home prefix", "open /home/alex/src/app/main.go", "open ~/src/app/main.go"},
		{"other linux user", "/home/sam/project", "~/project"},
		{"macos user", "cd /Users/jordan/code", "cd ~/code"},
		{"windows user", `C:\Users\Kim\repo`, `~\repo`},
		{"ssh key", "cat /home/alex/.ssh/id_ed25519", "cat " + CredentialPathToken},
		{"aws credentials", "read ~/.aws/credentials failed", "read " + CredentialPathToken + " failed"},
		{"netrc", "using /root/.netrc", "using " + CredentialPathToken},
		{"no paths", "nothing to see", "nothing to see"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
