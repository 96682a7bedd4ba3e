package storage

import (
	"context"
	"sync"

	"medvault/internal/domain"
)

// MemoryDB is the in-memory counterpart of the PostgreSQL database. It backs
// the memory stores of every component so a cross-store transaction can
// snapshot and restore the whole state at once. It favors clarity over
// performance.
type MemoryDB struct {
	mu sync.Mutex

	patients      []domain.Patient
	logs          []domain.LogEntry
	users         []domain.User
	nextPatientID int64
	nextLogID     int64
	nextUserID    int64
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{nextPatientID: 1, nextLogID: 1, nextUserID: 1}
}

type memTxKey struct{}

func inTx(ctx context.Context) bool {
	active, ok := ctx.Value(memTxKey{}).(bool)
	return ok && active
}

// RunInTx serializes the mutation against all other access and restores the
// previous state when fn fails, giving all-or-nothing semantics comparable to
// a serializable database transaction.
func (db *MemoryDB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		db.restore(snapshot)
		return err
	}
	return nil
}

// Lock acquires the data mutex unless the context already runs inside a
// transaction, which holds it for the duration of the scope. Callers must
// invoke the returned function when done.
func (db *MemoryDB) Lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

type memSnapshot struct {
	patients      []domain.Patient
	logs          []domain.LogEntry
	users         []domain.User
	nextPatientID int64
	nextLogID     int64
	nextUserID    int64
}

func (db *MemoryDB) snapshot() memSnapshot {
	return memSnapshot{
		patients:      clonePatients(db.patients),
		logs:          append([]domain.LogEntry(nil), db.logs...),
		users:         append([]domain.User(nil), db.users...),
		nextPatientID: db.nextPatientID,
		nextLogID:     db.nextLogID,
		nextUserID:    db.nextUserID,
	}
}

func (db *MemoryDB) restore(s memSnapshot) {
	db.patients = s.patients
	db.logs = s.logs
	db.users = s.users
	db.nextPatientID = s.nextPatientID
	db.nextLogID = s.nextLogID
	db.nextUserID = s.nextUserID
}

func clonePatients(in []domain.Patient) []domain.Patient {
	out := make([]domain.Patient, len(in))
	for i, p := range in {
		out[i] = p
		out[i].Name = append([]byte(nil), p.Name...)
		out[i].Contact = append([]byte(nil), p.Contact...)
		if p.AnonymizedName != nil {
			v := *p.AnonymizedName
			out[i].AnonymizedName = &v
		}
		if p.AnonymizedContact != nil {
			v := *p.AnonymizedContact
			out[i].AnonymizedContact = &v
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Table access. The per-component memory stores wrap these primitives; they
// run either standalone (taking the lock) or inside a transaction scope.
// -----------------------------------------------------------------------------

// InsertPatient assigns the surrogate key and appends the row.
func (db *MemoryDB) InsertPatient(ctx context.Context, p domain.Patient) int64 {
	defer db.Lock(ctx)()
	p.ID = db.nextPatientID
	db.nextPatientID++
	db.patients = append(db.patients, p)
	return p.ID
}

// Patients returns a deep copy of all patient rows in insertion order.
func (db *MemoryDB) Patients(ctx context.Context) []domain.Patient {
	defer db.Lock(ctx)()
	return clonePatients(db.patients)
}

// MutatePatients applies fn to each stored row in place.
func (db *MemoryDB) MutatePatients(ctx context.Context, fn func(p *domain.Patient) error) error {
	defer db.Lock(ctx)()
	for i := range db.patients {
		if err := fn(&db.patients[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeletePatients removes rows matching the predicate and returns the count.
func (db *MemoryDB) DeletePatients(ctx context.Context, match func(p domain.Patient) bool) int64 {
	defer db.Lock(ctx)()
	kept := db.patients[:0]
	var deleted int64
	for _, p := range db.patients {
		if match(p) {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	db.patients = kept
	return deleted
}

// InsertLog assigns the surrogate key and appends the entry.
func (db *MemoryDB) InsertLog(ctx context.Context, e domain.LogEntry) int64 {
	defer db.Lock(ctx)()
	e.ID = db.nextLogID
	db.nextLogID++
	db.logs = append(db.logs, e)
	return e.ID
}

// Logs returns a copy of all log entries in insertion order.
func (db *MemoryDB) Logs(ctx context.Context) []domain.LogEntry {
	defer db.Lock(ctx)()
	return append([]domain.LogEntry(nil), db.logs...)
}

// DeleteLogs removes entries matching the predicate and returns the count.
func (db *MemoryDB) DeleteLogs(ctx context.Context, match func(e domain.LogEntry) bool) int64 {
	defer db.Lock(ctx)()
	kept := db.logs[:0]
	var deleted int64
	for _, e := range db.logs {
		if match(e) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	db.logs = kept
	return deleted
}

// InsertUser assigns the surrogate key and appends the row. Provisioning is
// outside the core contract; this exists for seeding dev and test data.
func (db *MemoryDB) InsertUser(ctx context.Context, u domain.User) int64 {
	defer db.Lock(ctx)()
	u.ID = db.nextUserID
	db.nextUserID++
	db.users = append(db.users, u)
	return u.ID
}

// FindUserByUsername returns the matching user row, if any.
func (db *MemoryDB) FindUserByUsername(ctx context.Context, username string) (domain.User, bool) {
	defer db.Lock(ctx)()
	for _, u := range db.users {
		if u.Username == username {
			return u, true
		}
	}
	return domain.User{}, false
}
