package lead

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/zensbot/leadflow/agent/contract"
)

var (
	ErrRecordNotFound = contractx.ErrRecordNotFound
	ErrInvalidID      = errors.New("conversation id is empty")
)

const (
	defaultWriteRetries = 3
	defaultRetryBackoff = 100 * time.Millisecond
)

// LeadSummary is a lightweight projection returned by stage queries; it
// carries no turn log.
type LeadSummary struct {
	ConversationID string    `json:"conversation_id"`
	Stage          Stage     `json:"stage"`
	StageUpdatedAt time.Time `json:"stage_updated_at"`
	CreatedAt      time.Time `json:"created_at"`
	Data           Data      `json:"lead_data"`
}

// FunnelStats aggregates the pipeline.
type FunnelStats struct {
	TotalLeads     int           `json:"total_leads"`
	ByStage        map[Stage]int `json:"by_stage"`
	ConversionRate float64       `json:"conversion_rate"`
}

// Store is the persistence contract used by the orchestrator.
type Store interface {
	LoadOrCreate(conversationID string) (*Record, error)
	Get(conversationID string) (*Record, error)
	ApplyTurn(conversationID, userMessage, assistantMessage string, updates FieldUpdates) (*Record, error)
	SetStage(conversationID string, stage Stage) (*Record, error)
	SetSummary(conversationID, summary string) (*Record, error)
	LeadsByStage(stage Stage) []LeadSummary
	Stats() FunnelStats
}

type StoreConfig struct {
	Path         string        `envconfig:"PATH" split_words:"true" default:"./data/leads.json"`
	TurnCap      int           `envconfig:"TURN_CAP" split_words:"true" default:"100"`
	WriteRetries int           `envconfig:"WRITE_RETRIES" split_words:"true" default:"3"`
	RetryBackoff time.Duration `envconfig:"RETRY_BACKOFF" split_words:"true" default:"100ms"`
}

// FileStore keeps every lead record in memory and mirrors the full map to a
// single JSON file after each mutation. One lock serializes all mutations;
// load is low-volume chat traffic, so the simple-correct choice wins.
type FileStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	gen     uint64

	// persistMu serializes file writes; persisted tracks the highest
	// generation that reached disk so a stale snapshot is never renamed
	// over a newer one.
	persistMu sync.Mutex
	persisted uint64

	path         string
	turnCap      int
	writeRetries int
	retryBackoff time.Duration

	now func() time.Time
}

func NewFileStore(cfg StoreConfig) (*FileStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("store path is required")
	}

	turnCap := cfg.TurnCap
	if turnCap <= 0 {
		turnCap = DefaultTurnCap
	}
	retries := cfg.WriteRetries
	if retries <= 0 {
		retries = defaultWriteRetries
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	s := &FileStore{
		records:      make(map[string]*Record),
		path:         path,
		turnCap:      turnCap,
		writeRetries: retries,
		retryBackoff: backoff,
		now:          time.Now,
	}

	if err := s.loadFromDisk(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) loadFromDisk() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read lead store file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	var decoded map[string]*Record
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode lead store file: %w", err)
	}

	now := s.now()
	migrated := false
	for id, rec := range decoded {
		if rec == nil {
			continue
		}
		if rec.migrate(id, now) {
			migrated = true
		}
		s.records[id] = rec
	}
	if migrated {
		log.Info().Str("path", s.path).Msg("upgraded legacy lead records")
	}
	return nil
}

// LoadOrCreate returns the existing record or lazily creates one seeded with
// stage NEW. Creation is persisted immediately so the id survives a restart.
func (s *FileStore) LoadOrCreate(conversationID string) (*Record, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	rec, ok := s.records[id]
	created := false
	if !ok {
		rec = NewRecord(id, s.now())
		s.records[id] = rec
		created = true
	}
	out := rec.Clone()
	var snapshot []byte
	var gen uint64
	if created {
		snapshot, gen = s.marshalLocked()
	}
	s.mu.Unlock()

	if created {
		s.persist(snapshot, gen)
	}
	return out, nil
}

func (s *FileStore) Get(conversationID string) (*Record, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return nil, ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return rec.Clone(), nil
}

// ApplyTurn atomically merges field updates, appends the turn, re-derives the
// stage and persists. Empty updates still append the turn and bump updated_at.
func (s *FileStore) ApplyTurn(conversationID, userMessage, assistantMessage string, updates FieldUpdates) (*Record, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	now := s.now()
	rec, ok := s.records[id]
	if !ok {
		rec = NewRecord(id, now)
		s.records[id] = rec
	}

	rec.MergeFields(updates)
	rec.AppendTurn(Turn{
		Timestamp:        now.UTC(),
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	}, s.turnCap)
	rec.RederiveStage(now)
	rec.Touch(now)

	out := rec.Clone()
	snapshot, gen := s.marshalLocked()
	s.mu.Unlock()

	s.persist(snapshot, gen)
	return out, nil
}

// SetStage is the administrative override. The history entry is tagged
// manual, which pins the stage as a forward-progress floor (LOST entirely).
func (s *FileStore) SetStage(conversationID string, stage Stage) (*Record, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return nil, ErrInvalidID
	}
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", contractx.ErrInvalidStage, stage)
	}

	s.mu.Lock()
	now := s.now()
	rec, ok := s.records[id]
	if !ok {
		rec = NewRecord(id, now)
		s.records[id] = rec
	}
	rec.SetStageManual(stage, now)
	rec.Touch(now)

	out := rec.Clone()
	snapshot, gen := s.marshalLocked()
	s.mu.Unlock()

	s.persist(snapshot, gen)
	return out, nil
}

// SetSummary overwrites the rolling summary; replace, not append.
func (s *FileStore) SetSummary(conversationID, summary string) (*Record, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	now := s.now()
	rec, ok := s.records[id]
	if !ok {
		rec = NewRecord(id, now)
		s.records[id] = rec
	}
	rec.Summary = &summary
	rec.Touch(now)

	out := rec.Clone()
	snapshot, gen := s.marshalLocked()
	s.mu.Unlock()

	s.persist(snapshot, gen)
	return out, nil
}

// LeadsByStage scans all records; full scan is acceptable at this scale.
func (s *FileStore) LeadsByStage(stage Stage) []LeadSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LeadSummary, 0, 8)
	for id, rec := range s.records {
		if rec.Stage != stage {
			continue
		}
		out = append(out, LeadSummary{
			ConversationID: id,
			Stage:          rec.Stage,
			StageUpdatedAt: rec.StageUpdatedAt,
			CreatedAt:      rec.CreatedAt,
			Data:           rec.Data.clone(),
		})
	}
	return out
}

func (s *FileStore) Stats() FunnelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStage := make(map[Stage]int, len(AllStages))
	for _, st := range AllStages {
		byStage[st] = 0
	}
	total := 0
	for _, rec := range s.records {
		byStage[rec.Stage]++
		total++
	}

	rate := 0.0
	if total > 0 {
		rate = float64(byStage[StageEnrolled]) / float64(total) * 100
	}
	return FunnelStats{
		TotalLeads:     total,
		ByStage:        byStage,
		ConversionRate: rate,
	}
}

// marshalLocked serializes the full map and stamps it with the next snapshot
// generation while the caller holds the lock; the actual file I/O happens
// outside the critical section.
func (s *FileStore) marshalLocked() ([]byte, uint64) {
	raw, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("marshal lead records")
		return nil, 0
	}
	s.gen++
	return raw, s.gen
}

// persist writes the snapshot to its own temp file and atomically swaps it
// into place. Writers are serialized behind persistMu and a snapshot older
// than what is already on disk is dropped, so concurrent mutations cannot
// interleave writes or roll the durable file backward. A transiently locked
// destination is retried with increasing backoff; terminal failure is logged
// and absorbed; the in-memory copy is authoritative and the next successful
// write carries the pending change.
func (s *FileStore) persist(snapshot []byte, gen uint64) {
	if snapshot == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if gen <= s.persisted {
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("create lead store directory")
		return
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("create lead store temp file")
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(snapshot); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		log.Error().Err(err).Str("path", tmpName).Msg("write lead store temp file")
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		log.Error().Err(err).Str("path", tmpName).Msg("close lead store temp file")
		return
	}

	for attempt := 1; attempt <= s.writeRetries; attempt++ {
		if err = os.Rename(tmpName, s.path); err == nil {
			s.persisted = gen
			return
		}
		if attempt < s.writeRetries {
			time.Sleep(s.retryBackoff * time.Duration(attempt))
		}
	}

	_ = os.Remove(tmpName)
	log.Error().Err(err).
		Str("path", s.path).
		Int("retries", s.writeRetries).
		Msg("lead store write failed, keeping state in memory")
}
