package printing

import (
	"encoding/base64"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// Background is the page background resolved at startup.
type Background struct {
	// DataURL is the embedded image, empty when there is none
	DataURL template.URL
	// Name is the configured file's base name
	Name string
	// Missing is set when a background was configured but not found
	Missing bool
}

// WarningMissingBackground is reported on every render while the
// configured background is missing.
const WarningMissingBackground = "missing-background"

// LoadBackground reads the configured background image. An empty path
// means no background. A configured path that does not exist returns a
// MISSING_ASSET error when required, otherwise a Background marked Missing.
func LoadBackground(path string, required bool) (*Background, error) {
	if path == "" {
		return &Background{}, nil
	}

	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if required {
				return nil, NewRenderError(ErrCodeMissingAsset, "background image not found: "+path, err)
			}
			return &Background{Name: name, Missing: true}, nil
		}
		return nil, NewRenderError(ErrCodeAssetUnreadable, "cannot read background image: "+path, err)
	}

	mime := http.DetectContentType(data)
	url := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return &Background{DataURL: template.URL(url), Name: name}, nil
}

// Warnings returns the render warnings this background implies.
func (b *Background) Warnings() []string {
	if b != nil && b.Missing {
		return []string{WarningMissingBackground}
	}
	return nil
}
