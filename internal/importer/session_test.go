package importer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/sizes"
)

// MockProductStore is a mock implementation of ProductStore
type MockProductStore struct {
	mock.Mock
}

var _ ProductStore = (*MockProductStore)(nil)

func (m *MockProductStore) CreateImportedProduct(ctx context.Context, partnerID string, product *NormalizedProduct) (string, error) {
	args := m.Called(ctx, partnerID, product)
	return args.String(0), args.Error(1)
}

type stubPartners struct {
	url string
	err error
}

func (s *stubPartners) GetWebsiteURL(partnerID string) (string, error) {
	return s.url, s.err
}

type recordingNotifier struct {
	partnerID string
	created   int
	calls     int
}

func (n *recordingNotifier) ImportCompleted(partnerID string, created int) {
	n.partnerID = partnerID
	n.created = created
	n.calls++
}

type failingStrategy struct{}

func (f *failingStrategy) Name() string { return "failing" }

func (f *failingStrategy) ProposeMapping(context.Context, []string, []RawRow) (FieldMapping, error) {
	return nil, errors.New("strategy unavailable")
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestImporter(store ProductStore, partners PartnerDirectory, notifier CompletionNotifier, strategies ...MappingStrategy) *Importer {
	return NewImporter(store, partners, notifier, NewNormalizer(sizes.Default(), "USD"), testLogger(), strategies...)
}

const validCSV = `title,price,category,size,images
Jacket,49.99,clothing,m,https://cdn.example.com/jacket.jpg
Boots,89.00,shoes,42,https://cdn.example.com/boots.jpg
`

const mixedCSV = `title,price,category,size,images
Jacket,49.99,clothing,m,https://cdn.example.com/jacket.jpg
Broken,,clothing,m,https://cdn.example.com/broken.jpg
Boots,89.00,shoes,42,https://cdn.example.com/boots.jpg
`

func TestStartReachesReviewPending(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(mixedCSV))
	require.NoError(t, err)

	assert.Equal(t, StateReviewPending, s.State())
	rows := s.Rows()
	require.Len(t, rows, 3)

	// Rows keep file order
	assert.Equal(t, "Jacket", rows[0].Title)
	assert.Equal(t, "Broken", rows[1].Title)
	assert.Equal(t, "Boots", rows[2].Title)

	assert.Equal(t, 1, s.InvalidCount())
	assert.False(t, rows[1].Valid())
}

func TestStartPreconditions(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{}, nil)

	t.Run("partner required", func(t *testing.T) {
		_, err := imp.Start(context.Background(), "", strings.NewReader(validCSV))
		assert.ErrorIs(t, err, ErrPartnerRequired)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := imp.Start(context.Background(), "partner-1", strings.NewReader("title,price\n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("parse failure is terminal", func(t *testing.T) {
		_, err := imp.Start(context.Background(), "partner-1", strings.NewReader("title,price\n\"bad,1\n"))
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}

func TestStartFallsBackWhenStrategyFails(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{}, nil, &failingStrategy{})

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	// The failing strategy is skipped and the regex fallback still maps the
	// batch end to end
	assert.Equal(t, 0, s.InvalidCount())
}

func TestStartContinuesWithoutPartnerURL(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{err: errors.New("partner-service down")}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	for _, row := range s.Rows() {
		_, ok := row.Metadata["product_url"]
		assert.False(t, ok)
	}
}

func TestStartSeedsProductURL(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{url: "https://shop.example.com"}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	rows := s.Rows()
	assert.Equal(t, "https://shop.example.com/jacket", rows[0].Metadata["product_url"])
	assert.Equal(t, "https://shop.example.com/boots", rows[1].Metadata["product_url"])
}

func TestEditRowRevalidates(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{url: "https://shop.example.com"}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(mixedCSV))
	require.NoError(t, err)
	require.False(t, s.Rows()[1].Valid())

	price := 25.0
	row, err := s.EditRow(1, RowEdit{Price: &price})
	require.NoError(t, err)

	assert.True(t, row.Valid(), "unexpected errors: %v", row.Errors)
	assert.Equal(t, 0, s.InvalidCount())
}

func TestEditRowRederivesProductURL(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{url: "https://shop.example.com"}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	title := "Rain Jacket Deluxe"
	row, err := s.EditRow(0, RowEdit{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/rain-jacket-deluxe", row.Metadata["product_url"])
}

func TestEditRowBounds(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	title := "X"
	_, err = s.EditRow(-1, RowEdit{Title: &title})
	assert.ErrorIs(t, err, ErrRowOutOfRange)
	_, err = s.EditRow(2, RowEdit{Title: &title})
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestDeleteRowPreservesOrder(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(mixedCSV))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRow(1))

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Jacket", rows[0].Title)
	assert.Equal(t, "Boots", rows[1].Title)

	assert.ErrorIs(t, s.DeleteRow(2), ErrRowOutOfRange)
}

func TestConfirmCommitsExactlyValidRows(t *testing.T) {
	store := &MockProductStore{}
	notifier := &recordingNotifier{}
	imp := newTestImporter(store, &stubPartners{}, notifier)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(mixedCSV))
	require.NoError(t, err)

	var committed []string
	store.On("CreateImportedProduct", mock.Anything, "partner-1", mock.Anything).
		Run(func(args mock.Arguments) {
			committed = append(committed, args.Get(2).(*NormalizedProduct).Title)
		}).
		Return("new-id", nil)

	outcome, err := s.Confirm(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, 3, outcome.Submitted)
	assert.Equal(t, 2, outcome.Created)
	assert.Equal(t, 1, outcome.SkippedInvalid)
	assert.Equal(t, []string{"new-id", "new-id"}, outcome.CreatedIDs)

	// Only the valid rows, in original order; the invalid row never reaches
	// the store
	assert.Equal(t, []string{"Jacket", "Boots"}, committed)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, "partner-1", notifier.partnerID)
	assert.Equal(t, 2, notifier.created)
}

func TestConfirmAbortsOnFirstFailure(t *testing.T) {
	store := &MockProductStore{}
	notifier := &recordingNotifier{}
	imp := newTestImporter(store, &stubPartners{}, notifier)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	calls := 0
	store.On("CreateImportedProduct", mock.Anything, "partner-1", mock.Anything).
		Return("", errors.New("db down")).
		Run(func(mock.Arguments) { calls++ })

	outcome, err := s.Confirm(context.Background())
	require.Error(t, err)

	// Abort after the first failed write; nothing else is attempted and no
	// completion signal fires
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, outcome.Created)
	assert.Equal(t, 2, outcome.FailedLine)
	assert.Equal(t, 0, notifier.calls)
}

func TestConfirmReportsPartialCommit(t *testing.T) {
	store := &MockProductStore{}
	imp := newTestImporter(store, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	store.On("CreateImportedProduct", mock.Anything, "partner-1", mock.MatchedBy(func(p *NormalizedProduct) bool {
		return p.Title == "Jacket"
	})).Return("id-1", nil)
	store.On("CreateImportedProduct", mock.Anything, "partner-1", mock.MatchedBy(func(p *NormalizedProduct) bool {
		return p.Title == "Boots"
	})).Return("", errors.New("db down"))

	outcome, err := s.Confirm(context.Background())
	require.Error(t, err)

	// Committed rows stay committed; the error says how far we got
	assert.Equal(t, 1, outcome.Created)
	assert.Equal(t, []string{"id-1"}, outcome.CreatedIDs)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestConfirmHonorsCancellation(t *testing.T) {
	store := &MockProductStore{}
	imp := newTestImporter(store, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := s.Confirm(ctx)
	require.ErrorIs(t, err, ErrImportCancelled)
	assert.Equal(t, 0, outcome.Created)
	assert.Equal(t, StateCancelled, s.State())
	store.AssertNotCalled(t, "CreateImportedProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmOnlyFromReviewPending(t *testing.T) {
	store := &MockProductStore{}
	imp := newTestImporter(store, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	store.On("CreateImportedProduct", mock.Anything, "partner-1", mock.Anything).Return("id", nil)
	_, err = s.Confirm(context.Background())
	require.NoError(t, err)

	_, err = s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)

	title := "X"
	_, err = s.EditRow(0, RowEdit{Title: &title})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.DeleteRow(0), ErrInvalidState)
}

func TestCancelDiscardsWithoutPersisting(t *testing.T) {
	store := &MockProductStore{}
	imp := newTestImporter(store, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	require.NoError(t, s.Cancel())
	assert.Equal(t, StateCancelled, s.State())
	assert.Empty(t, s.Rows())
	store.AssertNotCalled(t, "CreateImportedProduct", mock.Anything, mock.Anything, mock.Anything)

	// A finished import cannot be cancelled
	assert.ErrorIs(t, s.Cancel(), ErrInvalidState)
}

func TestManagerSingleFlightPerPartner(t *testing.T) {
	store := &MockProductStore{}
	imp := newTestImporter(store, &stubPartners{}, nil)
	m := NewManager(imp)

	first, err := m.StartImport(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	// Second import for the same partner is rejected while the first is live
	_, err = m.StartImport(context.Background(), "partner-1", strings.NewReader(validCSV))
	assert.ErrorIs(t, err, ErrImportInFlight)

	// A different partner is unaffected
	_, err = m.StartImport(context.Background(), "partner-2", strings.NewReader(validCSV))
	require.NoError(t, err)

	// Once the first session reaches a terminal state, the partner can start
	// a new one
	require.NoError(t, first.Cancel())
	next, err := m.StartImport(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
}

func TestManagerGetAndRelease(t *testing.T) {
	imp := newTestImporter(&MockProductStore{}, &stubPartners{}, nil)
	m := NewManager(imp)

	s, err := m.StartImport(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s, got)

	// Active sessions are not released
	m.Release(s.ID)
	_, ok = m.Get(s.ID)
	assert.True(t, ok)

	require.NoError(t, s.Cancel())
	m.Release(s.ID)
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
}

func TestConfirmWritesEachValidRowOnce(t *testing.T) {
	store := &MockProductStore{}
	imp := newTestImporter(store, &stubPartners{}, nil)

	s, err := imp.Start(context.Background(), "partner-1", strings.NewReader(validCSV))
	require.NoError(t, err)

	store.On("CreateImportedProduct", mock.Anything, "partner-1", mock.Anything).Return("id", nil)

	outcome, err := s.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Created)
	store.AssertNumberOfCalls(t, "CreateImportedProduct", 2)
}
