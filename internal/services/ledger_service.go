package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/ashmitsharp/trackmoney-api/internal/charts"
	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
	"github.com/ashmitsharp/trackmoney-api/internal/logger"
	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/ashmitsharp/trackmoney-api/internal/store"
	"github.com/ashmitsharp/trackmoney-api/internal/telemetry"
)

// ErrNotSignedIn is returned for any call made without a user id
var ErrNotSignedIn = errors.New("not signed in")

// LoginMethod is reported with login and sign-up events
const LoginMethod = "clerk"

// Snapshot is a read-only view of one user's ledger
type Snapshot struct {
	Transactions  []models.Transaction   `json:"transactions"`
	Balances      ledger.Balances        `json:"balances"`
	Debt          ledger.Override        `json:"debt"`
	Savings       ledger.Override        `json:"savings"`
	Breakdown     []ledger.CategoryShare `json:"breakdown"`
	ChartsVisible bool                   `json:"chartsVisible"`
}

// session is the in-memory ledger of one signed-in user
type session struct {
	mu            sync.Mutex
	doc           store.Document
	chartsVisible bool
	lane          *saveLane
}

// saveLane orders the saves of one user. It outlives sessions, so a save
// scheduled before sign-out can never overwrite one made after the next sign-in.
type saveLane struct {
	version atomic.Uint64

	// mu serializes writes; attempted is the newest version handed to the store
	mu        sync.Mutex
	attempted uint64

	pendingMu sync.Mutex
	pending   int
	idle      chan struct{} // closed when pending drops to zero
}

func (l *saveLane) begin() {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	if l.pending == 0 {
		l.idle = make(chan struct{})
	}
	l.pending++
}

func (l *saveLane) end() {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	l.pending--
	if l.pending == 0 {
		close(l.idle)
		l.idle = nil
	}
}

// wait blocks until no save is scheduled or running
func (l *saveLane) wait(ctx context.Context) error {
	l.pendingMu.Lock()
	idle := l.idle
	l.pendingMu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LedgerService owns every signed-in user's ledger. Mutations apply in memory
// immediately; persistence happens afterwards in the background.
type LedgerService struct {
	store          store.Store
	events         telemetry.Emitter
	logger         *slog.Logger
	persistTimeout time.Duration

	now   func() time.Time
	newID func() (string, error)

	mu       sync.Mutex
	sessions map[string]*session
	lanes    map[string]*saveLane
	opening  singleflight.Group
	saves    sync.WaitGroup
}

func NewLedgerService(st store.Store, events telemetry.Emitter, log *slog.Logger, persistTimeout time.Duration) *LedgerService {
	if persistTimeout <= 0 {
		persistTimeout = 10 * time.Second
	}
	return &LedgerService{
		store:          st,
		events:         events,
		logger:         logger.WithComponent(log, logger.ComponentLedger),
		persistTimeout: persistTimeout,
		now:            time.Now,
		newID:          newTransactionID,
		sessions:       make(map[string]*session),
		lanes:          make(map[string]*saveLane),
	}
}

// newTransactionID returns a time-ordered id, so ids sort in creation order
func newTransactionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Open loads userID's ledger, or starts an empty one if nothing is stored.
// It is safe to call repeatedly; an open session is reused.
func (s *LedgerService) Open(ctx context.Context, userID string) error {
	_, err := s.session(ctx, userID)
	return err
}

func (s *LedgerService) session(ctx context.Context, userID string) (*session, error) {
	if userID == "" {
		return nil, ErrNotSignedIn
	}

	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	v, err, _ := s.opening.Do(userID, func() (any, error) {
		s.mu.Lock()
		if sess, ok := s.sessions[userID]; ok {
			s.mu.Unlock()
			return sess, nil
		}
		lane := s.lanes[userID]
		if lane == nil {
			lane = &saveLane{}
			s.lanes[userID] = lane
		}
		s.mu.Unlock()

		// Saves from an earlier sign-in land first, or the load would miss them
		if err := lane.wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for pending saves: %w", err)
		}

		doc, err := s.store.Load(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			doc = store.NewDocument()
		case err != nil:
			// Never start from an empty ledger here, the next save would wipe the stored one
			return nil, fmt.Errorf("load ledger: %w", err)
		}

		sess := &session{doc: *doc, lane: lane}
		s.mu.Lock()
		s.sessions[userID] = sess
		s.mu.Unlock()

		s.logger.DebugContext(ctx, "Ledger session opened",
			logger.FieldUserID, userID,
			"transactions", len(doc.Ledger.Transactions),
		)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*session), nil
}

// Snapshot returns the current ledger and everything derived from it
func (s *LedgerService) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	state := sess.doc.Ledger
	visible := sess.chartsVisible
	sess.mu.Unlock()

	return buildSnapshot(state, visible), nil
}

func buildSnapshot(state ledger.State, chartsVisible bool) Snapshot {
	balances := ledger.Derive(state)
	txs := state.Transactions
	if txs == nil {
		txs = []models.Transaction{}
	}
	return Snapshot{
		Transactions:  txs,
		Balances:      balances,
		Debt:          state.Debt,
		Savings:       state.Savings,
		Breakdown:     ledger.Breakdown(balances),
		ChartsVisible: chartsVisible,
	}
}

// Profile returns the stored profile for userID
func (s *LedgerService) Profile(ctx context.Context, userID string) (models.Profile, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.doc.Profile, nil
}

// AddTransaction validates in, stamps an id and date on it and appends it to the log
func (s *LedgerService) AddTransaction(ctx context.Context, userID string, in TransactionInput) (models.Transaction, Snapshot, error) {
	valid, err := ValidateTransactionInput(in)
	if err != nil {
		return models.Transaction{}, Snapshot{}, err
	}
	if userID == "" {
		return models.Transaction{}, Snapshot{}, ErrNotSignedIn
	}

	id, err := s.newID()
	if err != nil {
		return models.Transaction{}, Snapshot{}, fmt.Errorf("generate transaction id: %w", err)
	}

	when := s.now()
	if valid.Date != nil {
		when = *valid.Date
	}
	full := when.UTC()
	tx := models.Transaction{
		ID:          id,
		Description: valid.Description,
		Amount:      valid.Amount,
		Type:        valid.Type,
		Category:    valid.Category,
		Date:        when.Format(models.DisplayDateLayout),
		FullDate:    &full,
	}

	snap, err := s.apply(ctx, userID, ledger.AddTransaction{Transaction: tx})
	if err != nil {
		return models.Transaction{}, Snapshot{}, err
	}

	s.emit(ctx, telemetry.AddTransaction(userID, string(tx.Type), tx.Category, tx.Amount))
	return tx, snap, nil
}

// DeleteTransaction removes a transaction and reverses whatever it contributed
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) (Snapshot, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	removed, found := sess.doc.Ledger.Find(id)
	sess.mu.Unlock()
	if !found {
		return Snapshot{}, fmt.Errorf("%w: %s", ledger.ErrTransactionNotFound, id)
	}

	snap, err := s.apply(ctx, userID, ledger.DeleteTransaction{ID: id})
	if err != nil {
		return Snapshot{}, err
	}

	s.emit(ctx, telemetry.DeleteTransaction(userID, string(removed.Type), removed.Category, removed.Amount))
	return snap, nil
}

// SetBalance pins a debt or savings balance to value
func (s *LedgerService) SetBalance(ctx context.Context, userID string, kind ledger.Kind, value decimal.Decimal) (Snapshot, error) {
	snap, err := s.apply(ctx, userID, ledger.SetOverride{Kind: kind, Value: value})
	if err != nil {
		return Snapshot{}, err
	}
	s.emit(ctx, telemetry.UpdateBalance(userID, string(kind), value, true))
	return snap, nil
}

// ResetBalance returns a balance to being derived from the log
func (s *LedgerService) ResetBalance(ctx context.Context, userID string, kind ledger.Kind) (Snapshot, error) {
	snap, err := s.apply(ctx, userID, ledger.ResetOverride{Kind: kind})
	if err != nil {
		return Snapshot{}, err
	}

	derived := snap.Balances.Debt
	if kind == ledger.KindSavings {
		derived = snap.Balances.Savings
	}
	s.emit(ctx, telemetry.UpdateBalance(userID, string(kind), derived, false))
	return snap, nil
}

// Charts prepares chart data for one transaction type
func (s *LedgerService) Charts(ctx context.Context, userID string, typ models.TransactionType) (charts.Dataset, error) {
	if !typ.Valid() {
		return charts.Dataset{}, ValidationErrors{{Field: "type", Message: "type must be expense or income"}}
	}
	sess, err := s.session(ctx, userID)
	if err != nil {
		return charts.Dataset{}, err
	}

	sess.mu.Lock()
	txs := sess.doc.Ledger.Transactions
	sess.mu.Unlock()

	return charts.Prepare(txs, typ, s.now()), nil
}

// SetChartsVisible records the charts panel being shown or hidden.
// Visibility is session state and is not persisted.
func (s *LedgerService) SetChartsVisible(ctx context.Context, userID string, visible bool) error {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	sess.chartsVisible = visible
	sess.mu.Unlock()

	s.emit(ctx, telemetry.ChartsVisibility(userID, visible))
	return nil
}

// RecordLogin opens the ledger, merges profile with a fresh last-login time and saves it
func (s *LedgerService) RecordLogin(ctx context.Context, userID string, profile models.Profile) (models.Profile, error) {
	now := s.now().UTC()
	profile.LastLogin = &now
	profile.CreatedAt = nil

	merged, err := s.mergeProfile(ctx, userID, profile)
	if err != nil {
		return models.Profile{}, err
	}
	s.emit(ctx, telemetry.Login(userID, LoginMethod))
	return merged, nil
}

// RecordSignUp stores the profile of a newly created account
func (s *LedgerService) RecordSignUp(ctx context.Context, userID string, profile models.Profile) (models.Profile, error) {
	now := s.now().UTC()
	profile.CreatedAt = &now
	profile.LastLogin = nil

	merged, err := s.mergeProfile(ctx, userID, profile)
	if err != nil {
		return models.Profile{}, err
	}
	s.emit(ctx, telemetry.SignUp(userID, LoginMethod))
	return merged, nil
}

func (s *LedgerService) mergeProfile(ctx context.Context, userID string, profile models.Profile) (models.Profile, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	sess.mu.Lock()
	sess.doc.Profile = sess.doc.Profile.Merge(profile)
	merged := sess.doc.Profile
	doc, version := s.touch(sess)
	sess.mu.Unlock()

	s.persist(userID, sess, version, doc)
	return merged, nil
}

// ImportResult reports what ImportTransactions added and what it left out
type ImportResult struct {
	Format   string               `json:"format"`
	Imported []models.Transaction `json:"imported"`
	Skipped  []RowError           `json:"skipped"`
	Ledger   Snapshot             `json:"ledger"`
}

// ImportTransactions adds every parsed row in file order, each one exactly as
// AddTransaction would. Rows that fail validation are reported in Skipped;
// any other error stops the import with the rows before it kept.
func (s *LedgerService) ImportTransactions(ctx context.Context, userID string, batch ParsedBatch) (ImportResult, error) {
	if userID == "" {
		return ImportResult{}, ErrNotSignedIn
	}

	result := ImportResult{
		Format:   batch.Format,
		Imported: []models.Transaction{},
		Skipped:  append([]RowError{}, batch.Skipped...),
	}
	for _, row := range batch.Rows {
		tx, snap, err := s.AddTransaction(ctx, userID, row.Input)
		var invalid ValidationErrors
		if errors.As(err, &invalid) {
			result.Skipped = append(result.Skipped, RowError{Row: row.Row, Reason: invalid.Error()})
			continue
		}
		if err != nil {
			return result, fmt.Errorf("import row %d: %w", row.Row, err)
		}
		result.Imported = append(result.Imported, tx)
		result.Ledger = snap
	}
	slices.SortFunc(result.Skipped, func(a, b RowError) int { return a.Row - b.Row })

	if len(result.Imported) == 0 {
		snap, err := s.Snapshot(ctx, userID)
		if err != nil {
			return result, err
		}
		result.Ledger = snap
	}

	s.logger.InfoContext(ctx, "Transactions imported",
		logger.FieldUserID, userID,
		"format", batch.Format,
		"imported", len(result.Imported),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// Close signs userID out: the in-memory ledger is discarded. Saves already
// scheduled still complete, and the next sign-in loads only after they have.
func (s *LedgerService) Close(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNotSignedIn
	}

	s.mu.Lock()
	_, open := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if open {
		s.emit(ctx, telemetry.Logout(userID))
	}
	return nil
}

// Wait blocks until every scheduled save has finished or ctx is done
func (s *LedgerService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.saves.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply runs one reducer action against userID's ledger and schedules a save
func (s *LedgerService) apply(ctx context.Context, userID string, action ledger.Action) (Snapshot, error) {
	sess, err := s.session(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	next, err := ledger.Apply(sess.doc.Ledger, action)
	if err != nil {
		sess.mu.Unlock()
		return Snapshot{}, err
	}
	sess.doc.Ledger = next
	doc, version := s.touch(sess)
	snap := buildSnapshot(next, sess.chartsVisible)
	sess.mu.Unlock()

	s.persist(userID, sess, version, doc)
	return snap, nil
}

// touch bumps the user's save version and returns a copy to save. Caller holds sess.mu.
func (s *LedgerService) touch(sess *session) (store.Document, uint64) {
	sess.doc.UpdatedAt = s.now().UTC()
	return sess.doc, sess.lane.version.Add(1)
}

// persist writes doc in the background. A save older than one already attempted
// is skipped, so the stored document converges on the latest state. Failures are
// logged and the in-memory state stays as it is.
func (s *LedgerService) persist(userID string, sess *session, version uint64, doc store.Document) {
	lane := sess.lane
	lane.begin()
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		defer lane.end()

		lane.mu.Lock()
		defer lane.mu.Unlock()
		if version <= lane.attempted {
			return
		}
		lane.attempted = version

		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		start := time.Now()
		if err := s.store.Save(ctx, userID, &doc); err != nil {
			s.logger.Error("Failed to save ledger",
				logger.FieldUserID, userID,
				logger.FieldOperation, "save",
				"version", version,
				logger.FieldError, err,
			)
			return
		}
		s.logger.Debug("Ledger saved",
			logger.FieldUserID, userID,
			"version", version,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
	}()
}

func (s *LedgerService) emit(ctx context.Context, e telemetry.Event) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, e)
}
