package security

import "testing"

func TestValidateGitRemote(t *testing.T) {
	tests := []struct {
		remote  string
		wantErr bool
	}{
		{"git+https://github.com/ApeWorX/ape-foo.git", false},
		{"git+https://github.com/ApeWorX/ape-foo.git@v0.8.0", false},
		{"git+ssh://git@github.com/ApeWorX/ape-foo.git", false},
		{"https://github.com/ApeWorX/ape-foo.git", true},
		{"git+http://github.com/ApeWorX/ape-foo.git", true},
		{"git+file:///tmp/ape-foo", true},
		{"git+https://localhost/ape-foo.git", true},
		{"git+https://127.0.0.1/ape-foo.git", true},
		{"git+https://10.1.2.3/ape-foo.git", true},
		{"git+https://172.20.0.1/ape-foo.git", true},
		{"git+https://192.168.1.1/ape-foo.git", true},
		{"git+https://[::1]/ape-foo.git", true},
		{"git+https://[fd00::1]/ape-foo.git", true},
		{"git+https:///ape-foo.git", true},
	}

	for _, tt := range tests {
		err := ValidateGitRemote(tt.remote)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateGitRemote(%q) error = %v, wantErr %v", tt.remote, err, tt.wantErr)
		}
	}
}

func TestIsLocalOrPrivateHost(t *testing.T) {
	tests := map[string]bool{
		"github.com":      false,
		"8.8.8.8":         false,
		"localhost":       true,
		"api.localhost":   true,
		"169.254.1.1":     true,
		"0.0.0.0":         true,
		"172.15.0.1":      false,
		"2001:4860::8888": false,
	}

	for host, want := range tests {
		if got := isLocalOrPrivateHost(host); got != want {
			t.Errorf("isLocalOrPrivateHost(%q) = %v, want %v", host, got, want)
		}
	}
}
