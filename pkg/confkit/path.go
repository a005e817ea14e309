package confkit

import (
	"fmt"
	"os"
	"path/filepath"
)

const maxRootDepth = 8

// ProjectRoot walks up from the working directory until it finds a
// directory holding go.mod, .git or etc/. Falls back to the working
// directory itself.
func ProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	dir := wd
	for i := 0; i < maxRootDepth; i++ {
		if fileExists(filepath.Join(dir, "go.mod")) ||
			fileExists(filepath.Join(dir, ".git")) ||
			fileExists(filepath.Join(dir, "etc")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return wd, nil
}

// ProjectPath joins the project root with rel.
func ProjectPath(rel string) (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, rel), nil
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
