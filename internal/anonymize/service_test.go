package anonymize

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medvault/internal/audit"
	"medvault/internal/crypto"
	"medvault/internal/domain"
	"medvault/internal/records"
	"medvault/internal/storage"
	"medvault/pkg/requestcontext"
	"medvault/pkg/testutil"
)

var pseudonymPattern = regexp.MustCompile(`^Patient-\d+$`)

type failingAuditStore struct{}

func (failingAuditStore) Insert(context.Context, domain.LogEntry) error {
	return errors.New("connection refused")
}

func (failingAuditStore) List(context.Context) ([]domain.LogEntry, error) {
	return nil, errors.New("connection refused")
}

func (failingAuditStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection refused")
}

type RunSuite struct {
	suite.Suite
	db         *storage.MemoryDB
	store      *records.MemoryStore
	auditStore *audit.MemoryStore
	cipher     *crypto.FieldCipher
	service    *Service
	now        time.Time
}

func TestRunSuite(t *testing.T) {
	suite.Run(t, new(RunSuite))
}

func (s *RunSuite) SetupTest() {
	s.db = storage.NewMemoryDB()
	s.store = records.NewMemoryStore(s.db)
	s.auditStore = audit.NewMemoryStore(s.db)
	s.cipher = testutil.FieldCipher(s.T())
	recorder := audit.NewRecorder(s.auditStore, testutil.Logger())
	s.service = NewService(s.store, recorder, s.cipher, s.db, testutil.Logger(), testutil.Metrics())
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *RunSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *RunSuite) seedPatient(contact string) int64 {
	encName, err := s.cipher.Encrypt("Alice")
	s.Require().NoError(err)
	encContact, err := s.cipher.Encrypt(contact)
	s.Require().NoError(err)
	id, err := s.store.Insert(context.Background(), domain.Patient{
		Name:      encName,
		Contact:   encContact,
		Diagnosis: "Flu",
		DateAdded: s.now,
	})
	s.Require().NoError(err)
	return id
}

func (s *RunSuite) TestRunPopulatesEveryRow() {
	s.seedPatient("5551234567")
	s.seedPatient("5559876543")

	ok, err := s.service.Run(s.ctx(), 1)
	s.Require().NoError(err)
	s.Require().True(ok)

	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(patients, 2)
	for _, p := range patients {
		s.Require().NotNil(p.AnonymizedName)
		s.Regexp(pseudonymPattern, *p.AnonymizedName)
		s.Require().NotNil(p.AnonymizedContact)
	}
	s.Equal("******4567", *patients[0].AnonymizedContact)
	s.Equal("******6543", *patients[1].AnonymizedContact)

	entries, err := s.auditStore.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.ActionAnonymize, entries[0].Action)
	s.Equal("admin", entries[0].Role)
	s.Require().NotNil(entries[0].UserID)
	s.Equal(int64(1), *entries[0].UserID)
	s.Equal(s.now, entries[0].Timestamp)
}

func (s *RunSuite) TestRunUsesOneMultiplierPerRun() {
	first := s.seedPatient("5551234567")
	second := s.seedPatient("5559876543")

	ok, err := s.service.Run(s.ctx(), 1)
	s.Require().NoError(err)
	s.Require().True(ok)

	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(patients, 2)

	var multipliers []int64
	for i, id := range []int64{first, second} {
		var derived int64
		_, scanErr := fmt.Sscanf(*patients[i].AnonymizedName, "Patient-%d", &derived)
		s.Require().NoError(scanErr)
		s.Require().NotZero(id)
		s.Require().Zero(derived % id)
		multipliers = append(multipliers, derived/id)
	}
	s.Equal(multipliers[0], multipliers[1])
	s.GreaterOrEqual(multipliers[0], int64(multiplierMin))
	s.LessOrEqual(multipliers[0], int64(multiplierMax))
}

func (s *RunSuite) TestRunOverwritesPriorPseudonyms() {
	id := s.seedPatient("5551234567")
	stale := "stale-pseudonym"
	s.Require().NoError(s.store.UpdatePseudonyms(context.Background(), id, stale, stale))

	ok, err := s.service.Run(s.ctx(), 1)
	s.Require().NoError(err)
	s.Require().True(ok)

	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(patients, 1)
	s.Regexp(pseudonymPattern, *patients[0].AnonymizedName)
	s.NotEqual(stale, *patients[0].AnonymizedContact)
}

func (s *RunSuite) TestRunEmptyTableStillAudits() {
	ok, err := s.service.Run(s.ctx(), 1)
	s.Require().NoError(err)
	s.True(ok)

	entries, err := s.auditStore.List(context.Background())
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *RunSuite) TestRunRollsBackOnDecryptFailure() {
	s.seedPatient("5551234567")

	// A row whose contact ciphertext cannot be decrypted fails the run.
	id, err := s.store.Insert(context.Background(), domain.Patient{
		Name:      []byte("opaque"),
		Contact:   []byte("not a valid ciphertext blob"),
		Diagnosis: "Flu",
		DateAdded: s.now,
	})
	s.Require().NoError(err)
	s.Require().NotZero(id)

	ok, err := s.service.Run(s.ctx(), 1)
	s.False(ok)
	s.NoError(err, "crypto failures degrade to the boolean contract")

	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	for _, p := range patients {
		s.Nil(p.AnonymizedName, "no row keeps a pseudonym from an aborted run")
	}

	entries, err := s.auditStore.List(context.Background())
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *RunSuite) TestRunRollsBackWhenAuditFails() {
	s.seedPatient("5551234567")

	recorder := audit.NewRecorder(failingAuditStore{}, testutil.Logger())
	service := NewService(s.store, recorder, s.cipher, s.db, testutil.Logger(), testutil.Metrics())

	ok, err := service.Run(s.ctx(), 1)
	s.False(ok)
	s.NoError(err)

	patients, listErr := s.store.List(context.Background())
	s.Require().NoError(listErr)
	s.Nil(patients[0].AnonymizedName)
}
