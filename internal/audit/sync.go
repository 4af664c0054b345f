package audit

import (
	auditrepo "bizzytrack/backend/internal/audit/repository"
)

// SyncRecorder writes each entry inline before returning. Failures are still only logged.
// Used by command-line tools and tests.
type SyncRecorder struct {
	*base
}

// NewSyncRecorder returns a recorder that persists to repo.
func NewSyncRecorder(repo auditrepo.Repository, opts ...Option) *SyncRecorder {
	b := newBase(repo, opts)
	b.submit = b.write
	return &SyncRecorder{base: b}
}

var _ Recorder = (*SyncRecorder)(nil)
