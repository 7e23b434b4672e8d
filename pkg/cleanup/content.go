package cleanup

import (
	"Saffron/pkg/log"
	"errors"
	"os"
	"path/filepath"
)

// Helper method to delete an upload and its tusd sidecar file due to any issues found during or post upload
func DeleteUploadFiles(dir, id string, logger log.Logger) {
	if len(id) == 0 {
		return
	}
	ext := []string{"", ".info"}
	for i := 0; i < len(ext); i++ {
		path := filepath.Join(dir, id+ext[i])
		oserr := os.Remove(path)
		if oserr != nil && !errors.Is(oserr, os.ErrNotExist) {
			logger.Error().Err(oserr).Msgf("Error occured during deleting upload file - %s", path)
		}
	}
}
