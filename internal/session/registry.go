package session

import (
	"slices"
	"sync"
	"time"
)

// Session is the in-memory state of one upload, addressed by its id. The
// received set is guarded by the session's own mutex so chunk intake,
// status reads and completion checks stay consistent with each other.
type Session struct {
	UploadID    string
	Filename    string
	TotalSize   int64
	ChunkSize   int64
	TotalChunks int
	Checksum    string
	CreatedAt   time.Time

	mu       sync.Mutex
	received map[int]struct{}
}

func New(uploadID string, filename string, totalSize int64, chunkSize int64, checksum string) *Session {
	totalChunks := int((totalSize + chunkSize - 1) / chunkSize)

	return &Session{
		UploadID:    uploadID,
		Filename:    filename,
		TotalSize:   totalSize,
		ChunkSize:   chunkSize,
		TotalChunks: totalChunks,
		Checksum:    checksum,
		CreatedAt:   time.Now().UTC(),
		received:    make(map[int]struct{}),
	}
}

// MarkReceived records a chunk index as persisted and returns the new count.
// Marking the same index twice is a no-op.
func (s *Session) MarkReceived(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received[index] = struct{}{}
	return len(s.received)
}

func (s *Session) ReceivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.received)
}

// ReceivedIndices returns the received chunk indices, sorted ascending.
func (s *Session) ReceivedIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	indices := make([]int, 0, len(s.received))
	for idx := range s.received {
		indices = append(indices, idx)
	}

	slices.Sort(indices)
	return indices
}

func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.received) == s.TotalChunks
}

// MissingChunks returns the indices not yet received, sorted ascending.
func (s *Session) MissingChunks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	missing := make([]int, 0, s.TotalChunks-len(s.received))
	for i := 0; i < s.TotalChunks; i++ {
		if _, ok := s.received[i]; !ok {
			missing = append(missing, i)
		}
	}

	return missing
}

// Registry is the process-wide upload-id to session map. It is volatile:
// after a restart it starts empty and status falls back to on-disk
// chunk enumeration.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.UploadID] = s
}

func (r *Registry) Get(uploadID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[uploadID]
	return s, ok
}

func (r *Registry) Delete(uploadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, uploadID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// ExpiredBefore returns the ids of sessions created before the cutoff.
func (r *Registry) ExpiredBefore(cutoff time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []string
	for id, s := range r.sessions {
		if s.CreatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}

	return expired
}
