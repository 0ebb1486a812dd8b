package blob

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var reUnsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ObjectKey builds the storage key for a stored file:
// <owner>/<yyyy>/<mm>/<dd>/<file-id>-<sanitized filename>.
// Keys are date-partitioned so bucket listings stay manageable.
func ObjectKey(ownerID, fileID uuid.UUID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s-%s",
		ownerID, now.UTC().Format("2006/01/02"), fileID, sanitizeFilename(filename))
}

func sanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	base = reUnsafeKeyChars.ReplaceAllString(base, "_")
	if strings.Trim(base, "._") == "" {
		return "file"
	}
	return base
}
