package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the import session lifecycle state.
type State string

const (
	StateIdle          State = "IDLE"
	StateReading       State = "READING"
	StateNormalizing   State = "NORMALIZING"
	StateReviewPending State = "REVIEW_PENDING"
	StateImporting     State = "IMPORTING"
	StateDone          State = "DONE"
	StateCancelled     State = "CANCELLED"
)

var (
	// ErrPartnerRequired is a precondition failure: the caller did not supply
	// a partner identity. Checked before any reading happens.
	ErrPartnerRequired = errors.New("partner identity is required")

	// ErrEmptyFile is a precondition failure: the upload has no data rows.
	ErrEmptyFile = errors.New("the file contains no data rows")

	// ErrImportInFlight means the partner already has an active import; one
	// pipeline instance processes one file at a time per partner.
	ErrImportInFlight = errors.New("an import is already in progress for this partner")

	// ErrInvalidState means the requested operation does not apply to the
	// session's current state.
	ErrInvalidState = errors.New("operation not allowed in current import state")

	// ErrRowOutOfRange means the review surface addressed a row index that is
	// not part of the batch.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrImportCancelled means the context was cancelled before the write
	// phase committed anything.
	ErrImportCancelled = errors.New("import cancelled before commit")
)

// ProductStore persists confirmed rows. Implemented by the products
// repository; the pipeline does not assume anything about its retry
// semantics beyond "it may fail".
type ProductStore interface {
	CreateImportedProduct(ctx context.Context, partnerID string, product *NormalizedProduct) (string, error)
}

// PartnerDirectory resolves partner profile data. GetWebsiteURL returns an
// empty string (not an error) when the partner has no storefront URL.
type PartnerDirectory interface {
	GetWebsiteURL(partnerID string) (string, error)
}

// CompletionNotifier receives the one-shot, fire-and-forget signal emitted
// after a successful commit.
type CompletionNotifier interface {
	ImportCompleted(partnerID string, created int)
}

// RowEdit carries a review-surface edit of one row. Nil fields are left
// unchanged; the row is re-validated with the full rule set after applying.
type RowEdit struct {
	Title       *string
	Description *string
	Price       *float64
	Currency    *string
	Stock       *int
	Sizes       *[]string
	Tags        *[]string
	Images      *[]string
	Category    *string
}

// ImportOutcome summarizes a commit attempt.
type ImportOutcome struct {
	Submitted      int      `json:"submitted"`
	Created        int      `json:"created"`
	SkippedInvalid int      `json:"skippedInvalid"`
	CreatedIDs     []string `json:"createdIds,omitempty"`
	FailedLine     int      `json:"failedLine,omitempty"`
}

// Importer drives the end-to-end pipeline: parse, map, normalize, review,
// persist. It is safe for concurrent use; per-session state lives on the
// Session.
type Importer struct {
	store      ProductStore
	partners   PartnerDirectory
	notifier   CompletionNotifier
	strategies []MappingStrategy
	normalizer *Normalizer
	logger     *logrus.Entry
}

// NewImporter wires the pipeline. Strategies are tried in order; the
// deterministic regex fallback is always appended last so mapping is total.
func NewImporter(store ProductStore, partners PartnerDirectory, notifier CompletionNotifier, normalizer *Normalizer, logger *logrus.Logger, strategies ...MappingStrategy) *Importer {
	return &Importer{
		store:      store,
		partners:   partners,
		notifier:   notifier,
		strategies: append(strategies, NewFallbackMapper()),
		normalizer: normalizer,
		logger:     logger.WithField("component", "importer"),
	}
}

// Session is one import batch moving through the state machine. All methods
// are safe for concurrent use.
type Session struct {
	ID        uuid.UUID `json:"id"`
	PartnerID string    `json:"partnerId"`

	imp     *Importer
	mu      sync.Mutex
	state   State
	baseURL string
	rows    []*NormalizedProduct
}

// Start runs the read and normalize phases for one upload and returns the
// session parked in REVIEW_PENDING. Parse failures are terminal for the
// attempt: the batch is discarded and the caller must re-upload.
func (imp *Importer) Start(ctx context.Context, partnerID string, file io.Reader) (*Session, error) {
	if partnerID == "" {
		return nil, ErrPartnerRequired
	}

	s := &Session{
		ID:        uuid.New(),
		PartnerID: partnerID,
		imp:       imp,
		state:     StateReading,
	}

	headers, rawRows, err := ParseCSV(file)
	if err != nil {
		s.state = StateIdle
		return nil, err
	}
	if len(rawRows) == 0 {
		s.state = StateIdle
		return nil, ErrEmptyFile
	}

	mapping := imp.resolveMapping(ctx, headers, rawRows)

	// Storefront URL seeds product_url metadata; absence is not an error.
	baseURL, err := imp.partners.GetWebsiteURL(partnerID)
	if err != nil {
		imp.logger.WithError(err).WithField("partnerId", partnerID).Warn("Failed to look up partner website URL")
		baseURL = ""
	}
	s.baseURL = baseURL

	s.state = StateNormalizing
	s.rows = make([]*NormalizedProduct, len(rawRows))
	for i, row := range rawRows {
		s.rows[i] = imp.normalizer.Normalize(row, mapping, baseURL)
	}

	s.state = StateReviewPending
	imp.logger.WithFields(logrus.Fields{
		"sessionId": s.ID,
		"partnerId": partnerID,
		"rows":      len(s.rows),
		"invalid":   s.InvalidCount(),
	}).Info("Import batch normalized, awaiting review")

	return s, nil
}

// resolveMapping tries each strategy in order. A failing strategy is a
// MappingDegradation: recovered locally, logged, never surfaced. The regex
// fallback is total, so this always returns a usable mapping.
func (imp *Importer) resolveMapping(ctx context.Context, headers []string, rows []RawRow) FieldMapping {
	sample := rows
	if len(sample) > classifierSampleRows {
		sample = sample[:classifierSampleRows]
	}

	for _, strategy := range imp.strategies {
		mapping, err := strategy.ProposeMapping(ctx, headers, sample)
		if err != nil {
			imp.logger.WithError(err).WithField("strategy", strategy.Name()).Warn("Mapping strategy failed, trying next")
			continue
		}
		return mapping.sanitize(headers)
	}

	// Unreachable as long as the fallback is registered, but never return nil.
	mapping, _ := NewFallbackMapper().ProposeMapping(ctx, headers, sample)
	return mapping
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Rows returns the batch in original row order.
func (s *Session) Rows() []*NormalizedProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]*NormalizedProduct, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// InvalidCount returns how many rows currently carry validation errors.
func (s *Session) InvalidCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, row := range s.rows {
		if !row.Valid() {
			count++
		}
	}
	return count
}

// EditRow applies an edit to the row at index and re-validates it with the
// same rule set used during normalization, against the row's current
// category.
func (s *Session) EditRow(index int, edit RowEdit) (*NormalizedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewPending {
		return nil, ErrInvalidState
	}
	if index < 0 || index >= len(s.rows) {
		return nil, ErrRowOutOfRange
	}

	row := s.rows[index]
	if edit.Title != nil {
		row.Title = *edit.Title
	}
	if edit.Description != nil {
		row.Description = *edit.Description
	}
	if edit.Price != nil {
		row.Price = *edit.Price
	}
	if edit.Currency != nil {
		row.Currency = *edit.Currency
	}
	if edit.Stock != nil {
		row.Stock = *edit.Stock
	}
	if edit.Sizes != nil {
		row.Sizes = *edit.Sizes
	}
	if edit.Tags != nil {
		row.Tags = *edit.Tags
	}
	if edit.Images != nil {
		row.Images = *edit.Images
	}
	if edit.Category != nil {
		row.Category = *edit.Category
	}

	s.imp.normalizer.Validate(row)

	if s.baseURL != "" && row.Title != "" {
		if row.Metadata == nil {
			row.Metadata = make(map[string]string)
		}
		row.Metadata["product_url"] = DeriveProductURL(s.baseURL, row.Title)
	}

	return row, nil
}

// DeleteRow removes the row at index from the in-memory batch. Rows before
// the index keep their relative order; rows after shift down by one. No
// persistence side effect.
func (s *Session) DeleteRow(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewPending {
		return ErrInvalidState
	}
	if index < 0 || index >= len(s.rows) {
		return ErrRowOutOfRange
	}

	s.rows = append(s.rows[:index], s.rows[index+1:]...)
	return nil
}

// Confirm commits the batch: exactly the rows with zero validation errors at
// this moment are persisted with the partner identity attached; invalid rows
// are excluded silently beyond the count already shown during review.
//
// Write policy: sequential, abort on first failure, report how many rows
// committed. Committed rows are not rolled back. Cancellation is honored
// between rows; a row whose write has started is not cancellable.
func (s *Session) Confirm(ctx context.Context) (*ImportOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewPending {
		return nil, ErrInvalidState
	}
	s.state = StateImporting

	outcome := &ImportOutcome{Submitted: len(s.rows)}
	valid := make([]*NormalizedProduct, 0, len(s.rows))
	for _, row := range s.rows {
		if row.Valid() {
			valid = append(valid, row)
		} else {
			outcome.SkippedInvalid++
		}
	}

	for _, row := range valid {
		if err := ctx.Err(); err != nil {
			s.state = StateCancelled
			s.rows = nil
			if outcome.Created == 0 {
				return outcome, ErrImportCancelled
			}
			return outcome, fmt.Errorf("import cancelled after %d of %d rows committed: %w", outcome.Created, len(valid), err)
		}

		id, err := s.imp.store.CreateImportedProduct(ctx, s.PartnerID, row)
		if err != nil {
			s.state = StateIdle
			s.rows = nil
			outcome.FailedLine = row.Line
			return outcome, fmt.Errorf("persist failed at line %d after %d of %d rows committed: %w",
				row.Line, outcome.Created, len(valid), err)
		}
		outcome.Created++
		outcome.CreatedIDs = append(outcome.CreatedIDs, id)
	}

	s.state = StateDone
	s.rows = nil

	s.imp.logger.WithFields(logrus.Fields{
		"sessionId": s.ID,
		"partnerId": s.PartnerID,
		"created":   outcome.Created,
		"skipped":   outcome.SkippedInvalid,
	}).Info("Import committed")

	if s.imp.notifier != nil {
		s.imp.notifier.ImportCompleted(s.PartnerID, outcome.Created)
	}

	return outcome, nil
}

// Cancel discards the batch with no persistence. Not allowed once the write
// phase has started.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateImporting, StateDone:
		return ErrInvalidState
	}

	s.state = StateCancelled
	s.rows = nil
	return nil
}

// terminal reports whether the session can no longer accept work.
func (s *Session) terminal() bool {
	switch s.State() {
	case StateDone, StateCancelled, StateIdle:
		return true
	}
	return false
}

// Manager tracks active sessions and enforces single-flight per partner.
type Manager struct {
	imp       *Importer
	mu        sync.Mutex
	byID      map[uuid.UUID]*Session
	byPartner map[string]*Session
	starting  map[string]bool
}

// NewManager creates a session manager for the importer.
func NewManager(imp *Importer) *Manager {
	return &Manager{
		imp:       imp,
		byID:      make(map[uuid.UUID]*Session),
		byPartner: make(map[string]*Session),
		starting:  make(map[string]bool),
	}
}

// StartImport begins a new session for the partner. Returns
// ErrImportInFlight while a previous session for the same partner is still
// active. The partner slot is reserved before parsing begins so two
// concurrent uploads cannot both pass the check.
func (m *Manager) StartImport(ctx context.Context, partnerID string, file io.Reader) (*Session, error) {
	if partnerID == "" {
		return nil, ErrPartnerRequired
	}

	m.mu.Lock()
	if existing, ok := m.byPartner[partnerID]; ok && !existing.terminal() {
		m.mu.Unlock()
		return nil, ErrImportInFlight
	}
	if m.starting[partnerID] {
		m.mu.Unlock()
		return nil, ErrImportInFlight
	}
	m.starting[partnerID] = true
	m.mu.Unlock()

	s, err := m.imp.Start(ctx, partnerID, file)

	m.mu.Lock()
	delete(m.starting, partnerID)
	if err == nil {
		m.byID[s.ID] = s
		m.byPartner[partnerID] = s
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the session by ID.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	return s, ok
}

// Release drops a terminal session from the manager. Active sessions are
// kept so the single-flight guarantee holds.
func (m *Manager) Release(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[id]
	if !ok || !s.terminal() {
		return
	}
	delete(m.byID, id)
	if current, ok := m.byPartner[s.PartnerID]; ok && current == s {
		delete(m.byPartner, s.PartnerID)
	}
}
