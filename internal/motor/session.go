package motor

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// session.go defines the Session handle (C10's per-file state) and its
// small synchronized surface: caching the most recent page for
// current_page search, exactly as spec.md §3 describes. The Session type
// itself lives in types.go alongside the rest of the wire model.

func newSession(path string, format FileFormat, size int64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Path:      path,
		Format:    format,
		CreatedAt: time.Now(),
		fileSize:  size,
	}
}

// setLastPage caches page's records for subsequent current_page search.
func (s *Session) setLastPage(page RecordPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPage = page.Records
}

// statSize reads the source file's size when a session is opened. The
// engine does not re-stat a session's file afterwards; callers needing the
// live size re-open.
func statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, NewError(KindIoError, "stat source file", err)
	}
	return info.Size(), nil
}
