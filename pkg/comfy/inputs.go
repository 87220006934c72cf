package comfy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StageInput writes image bytes into the engine's input directory under a
// unique name and returns the bare filename for use in LoadImage nodes.
func StageInput(inputDir string, data []byte) (string, error) {
	name := fmt.Sprintf("argon_%s.png", uuid.NewString()[:8])
	path := filepath.Join(inputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("stage input image: %w", err)
	}
	return name, nil
}
