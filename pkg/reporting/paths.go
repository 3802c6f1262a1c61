package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns results/<bot name slug>
func (p *DefaultPathManager) GetDefaultOutputDir(botName string) string {
	return filepath.Join("results", Slug(botName))
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// Slug lower-cases name and replaces anything but letters and digits with '_'
func Slug(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	slug := strings.Trim(b.String(), "_")
	if slug == "" {
		return "unnamed"
	}
	return slug
}

// DefaultOutputDir is the package-level form of GetDefaultOutputDir
func DefaultOutputDir(botName string) string {
	return NewDefaultPathManager().GetDefaultOutputDir(botName)
}
