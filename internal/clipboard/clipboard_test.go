package clipboard

import (
	"errors"
	"testing"
)

func lookPathFor(available map[string]string) func(string) (string, error) {
	return func(name string) (string, error) {
		if path, ok := available[name]; ok {
			return path, nil
		}
		return "", errors.New("not found")
	}
}

func TestSelectCommand(t *testing.T) {
	cases := []struct {
		name      string
		goos      string
		available map[string]string
		wantPath  string
		wantErr   bool
	}{
		{"darwin pbcopy", "darwin", map[string]string{"pbcopy": "/usr/bin/pbcopy"}, "/usr/bin/pbcopy", false},
		{"darwin missing", "darwin", nil, "", true},
		{"linux prefers wl-copy", "linux", map[string]string{"wl-copy": "/usr/bin/wl-copy", "xclip": "/usr/bin/xclip"}, "/usr/bin/wl-copy", false},
		{"linux falls back to xclip", "linux", map[string]string{"xclip": "/usr/bin/xclip"}, "/usr/bin/xclip", false},
		{"linux missing", "linux", nil, "", true},
		{"windows clip", "windows", map[string]string{"clip": `C:\Windows\System32\clip.exe`}, `C:\Windows\System32\clip.exe`, false},
		{"unsupported os", "plan9", map[string]string{"pbcopy": "/x"}, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectCommand(tc.goos, lookPathFor(tc.available))
			if tc.wantErr {
				if !errors.Is(err, ErrToolNotFound) {
					t.Fatalf("expected ErrToolNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Path != tc.wantPath {
				t.Fatalf("path = %q, want %q", got.Path, tc.wantPath)
			}
		})
	}
}

func TestSelectCommand_XclipArgs(t *testing.T) {
	got, err := SelectCommand("linux", lookPathFor(map[string]string{"xclip": "/usr/bin/xclip"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Args) != 2 || got.Args[0] != "-selection" || got.Args[1] != "clipboard" {
		t.Fatalf("xclip args = %v", got.Args)
	}
}
