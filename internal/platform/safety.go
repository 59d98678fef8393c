package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// devDirName is the namespace for sandboxed session files under the temp dir.
const devDirName = "notekeeper-dev"

// IsDevRun reports whether the current process runs via `go run` or `go test`.
// Both build their binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}

	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveSessionPath applies the dev sandbox to a session file path.
// Without forceTemp the path is returned unchanged. With it, paths already
// under the system temp dir are trusted (e.g. t.TempDir()) and anything else
// is redirected to <temp>/notekeeper-dev/<base name>.
func ResolveSessionPath(userPath string, forceTemp bool) string {
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	tempRoot := os.TempDir()

	if rel, err := filepath.Rel(tempRoot, clean); err == nil && !strings.HasPrefix(rel, "..") && filepath.IsAbs(clean) {
		return clean
	}

	name := filepath.Base(clean)
	if userPath == "" || name == "." || name == string(os.PathSeparator) {
		name = "default.json"
	}
	return filepath.Join(tempRoot, devDirName, name)
}
