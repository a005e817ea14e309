package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file into the process environment. The first
// call wins. Variables already set are kept unless LNM_DOTENV_OVERLOAD=1.
// LNM_ENV_FILE points at an explicit file; LNM_NO_DOTENV=1 disables loading.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("LNM_NO_DOTENV") == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv("LNM_DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv("LNM_ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}
	root, err := ProjectRoot()
	if err != nil {
		_ = load(".env")
		return
	}
	candidate := filepath.Join(root, ".env")
	if fileExists(candidate) {
		_ = load(candidate)
	}
}
