package records

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medvault/internal/audit"
	"medvault/internal/crypto"
	"medvault/internal/domain"
	"medvault/internal/storage"
	"medvault/pkg/requestcontext"
	"medvault/pkg/testutil"
)

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

type failingPatientStore struct {
	*MemoryStore
}

func (failingPatientStore) Insert(context.Context, domain.Patient) (int64, error) {
	return 0, errors.New("disk full")
}

func (failingPatientStore) UpdateByPseudonym(context.Context, string, FieldUpdate) (int64, error) {
	return 0, errors.New("disk full")
}

type ServiceSuite struct {
	suite.Suite
	db         *storage.MemoryDB
	store      *MemoryStore
	auditStore *audit.MemoryStore
	cipher     *crypto.FieldCipher
	service    *Service
	admin      requestcontext.Actor
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.db = storage.NewMemoryDB()
	s.store = NewMemoryStore(s.db)
	s.auditStore = audit.NewMemoryStore(s.db)
	s.cipher = testutil.FieldCipher(s.T())
	recorder := audit.NewRecorder(s.auditStore, testutil.Logger())
	s.service = NewService(s.store, recorder, s.cipher, s.db, testutil.Logger(), testutil.Metrics())
	s.admin = requestcontext.Actor{UserID: 1, Role: domain.RoleAdmin}
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) addAlice() {
	ok, err := s.service.AddPatient(s.ctx(), s.admin, NewPatient{
		Name:      "Alice",
		Contact:   "5551234",
		Diagnosis: "Flu",
	})
	s.Require().NoError(err)
	s.Require().True(ok)
}

func (s *ServiceSuite) logs() []domain.LogEntry {
	entries, err := s.auditStore.List(context.Background())
	s.Require().NoError(err)
	return entries
}

func (s *ServiceSuite) TestAddPatientValidation() {
	cases := []struct {
		name  string
		input NewPatient
	}{
		{"name too short", NewPatient{Name: "Al", Contact: "5551234", Diagnosis: "Flu"}},
		{"contact too short", NewPatient{Name: "Alice", Contact: "555", Diagnosis: "Flu"}},
		{"diagnosis empty", NewPatient{Name: "Alice", Contact: "5551234", Diagnosis: "   "}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			ok, err := s.service.AddPatient(s.ctx(), s.admin, tc.input)
			s.False(ok)
			s.ErrorIs(err, domain.ErrValidation)
		})
	}

	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Empty(patients, "rejected input must write no row")
	s.Empty(s.logs(), "rejected input must write no log entry")
}

func (s *ServiceSuite) TestAddPatientSuccess() {
	s.addAlice()

	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(patients, 1)

	p := patients[0]
	s.NotContains(string(p.Name), "Alice", "name must never be persisted in plaintext")
	s.NotContains(string(p.Contact), "5551234", "contact must never be persisted in plaintext")
	s.Nil(p.AnonymizedName)
	s.Nil(p.AnonymizedContact)
	s.Equal("Flu", p.Diagnosis)
	s.Equal(s.now, p.DateAdded)

	entries := s.logs()
	s.Require().Len(entries, 1)
	s.Equal(domain.ActionAdd, entries[0].Action)
	s.Equal("admin", entries[0].Role)
	s.Require().NotNil(entries[0].UserID)
	s.Equal(int64(1), *entries[0].UserID)
	s.Equal(s.now, entries[0].Timestamp)
}

func (s *ServiceSuite) TestAddPatientRollsBackWhenAuditFails() {
	recorder := audit.NewRecorder(failingAuditStore{}, testutil.Logger())
	service := NewService(s.store, recorder, s.cipher, s.db, testutil.Logger(), testutil.Metrics())

	ok, err := service.AddPatient(s.ctx(), s.admin, NewPatient{
		Name:      "Alice",
		Contact:   "5551234",
		Diagnosis: "Flu",
	})
	s.False(ok)
	s.NoError(err, "storage failures degrade to the boolean contract")

	patients, listErr := s.store.List(context.Background())
	s.Require().NoError(listErr)
	s.Empty(patients, "row insert must roll back with the failed audit entry")
}

func (s *ServiceSuite) TestAddPatientStorageFailure() {
	recorder := audit.NewRecorder(s.auditStore, testutil.Logger())
	service := NewService(failingPatientStore{s.store}, recorder, s.cipher, s.db, testutil.Logger(), testutil.Metrics())

	ok, err := service.AddPatient(s.ctx(), s.admin, NewPatient{
		Name:      "Alice",
		Contact:   "5551234",
		Diagnosis: "Flu",
	})
	s.False(ok)
	s.NoError(err)
	s.Empty(s.logs())
}

func (s *ServiceSuite) TestGetPatientsAdminDecrypts() {
	s.addAlice()

	views, err := s.service.GetPatients(s.ctx(), domain.RoleAdmin)
	s.Require().NoError(err)
	s.Require().Len(views, 1)

	s.Require().NotNil(views[0].Name)
	s.Equal("Alice", *views[0].Name)
	s.Require().NotNil(views[0].Contact)
	s.Equal("5551234", *views[0].Contact)
	s.Equal("Flu", views[0].Diagnosis)
}

func (s *ServiceSuite) TestGetPatientsRestrictedProjection() {
	s.addAlice()

	for _, role := range []domain.Role{domain.RoleDoctor, domain.RoleReceptionist} {
		s.Run(role.String(), func() {
			views, err := s.service.GetPatients(s.ctx(), role)
			s.Require().NoError(err)
			s.Require().Len(views, 1)

			s.Nil(views[0].Name)
			s.Nil(views[0].Contact)
			s.Nil(views[0].AnonymizedName, "pre-anonymization pseudonyms are null")

			payload, err := json.Marshal(views[0])
			s.Require().NoError(err)
			s.NotContains(string(payload), `"name"`)
			s.NotContains(string(payload), `"contact"`)
			s.Contains(string(payload), `"anonymized_name"`)
		})
	}
}

func (s *ServiceSuite) TestGetPatientsUnknownRole() {
	s.addAlice()

	_, err := s.service.GetPatients(s.ctx(), domain.Role("janitor"))
	s.ErrorIs(err, domain.ErrPolicy)
}

func (s *ServiceSuite) TestGetPatientsDecryptFailureAborts() {
	s.addAlice()

	err := s.db.MutatePatients(context.Background(), func(p *domain.Patient) error {
		p.Name = []byte("garbage that is long enough to carry a nonce prefix")
		return nil
	})
	s.Require().NoError(err)

	_, err = s.service.GetPatients(s.ctx(), domain.RoleAdmin)
	s.ErrorIs(err, domain.ErrCrypto)
}

func (s *ServiceSuite) pseudonymize(name string) {
	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	for _, p := range patients {
		s.Require().NoError(s.store.UpdatePseudonyms(context.Background(), p.ID, name, "***1234"))
	}
}

func (s *ServiceSuite) TestUpdatePatientDiagnosisOnly() {
	s.addAlice()
	s.pseudonymize("Patient-11")

	before, err := s.store.List(context.Background())
	s.Require().NoError(err)

	ok, err := s.service.UpdatePatient(s.ctx(), s.admin, "Patient-11", PatientUpdate{Diagnosis: "Cold"})
	s.Require().NoError(err)
	s.True(ok)

	after, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(after, 1)

	s.Equal("Cold", after[0].Diagnosis)
	s.Equal(before[0].Name, after[0].Name, "name ciphertext untouched")
	s.Equal(before[0].Contact, after[0].Contact, "contact ciphertext untouched")

	entries := s.logs()
	s.Require().Len(entries, 2) // ADD then UPDATE
	s.Equal(domain.ActionUpdate, entries[0].Action)
	s.Require().NotNil(entries[0].Details)
	s.Equal("updated 1 fields", *entries[0].Details)
}

func (s *ServiceSuite) TestUpdatePatientAllFields() {
	s.addAlice()
	s.pseudonymize("Patient-11")

	ok, err := s.service.UpdatePatient(s.ctx(), s.admin, "Patient-11", PatientUpdate{
		Name:      "Alicia",
		Contact:   "5559999",
		Diagnosis: "Cold",
	})
	s.Require().NoError(err)
	s.True(ok)

	views, err := s.service.GetPatients(s.ctx(), domain.RoleAdmin)
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("Alicia", *views[0].Name)
	s.Equal("5559999", *views[0].Contact)
	s.Equal("Cold", views[0].Diagnosis)

	entries := s.logs()
	s.Require().NotEmpty(entries)
	s.Require().NotNil(entries[0].Details)
	s.Equal("updated 3 fields", *entries[0].Details)
}

func (s *ServiceSuite) TestUpdatePatientNoFieldsRejected() {
	s.addAlice()
	s.pseudonymize("Patient-11")

	ok, err := s.service.UpdatePatient(s.ctx(), s.admin, "Patient-11", PatientUpdate{})
	s.False(ok)
	s.ErrorIs(err, domain.ErrValidation)

	entries := s.logs()
	s.Len(entries, 1, "rejected update writes no log entry")
}

func (s *ServiceSuite) TestUpdatePatientNeverAnonymizedIsUnreachable() {
	s.addAlice() // pseudonym still null

	ok, err := s.service.UpdatePatient(s.ctx(), s.admin, "", PatientUpdate{Diagnosis: "Cold"})
	s.Require().NoError(err)
	s.True(ok, "the write contract reports success even when no row matched")

	patients, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Equal("Flu", patients[0].Diagnosis, "null pseudonyms cannot be targeted")
}

func (s *ServiceSuite) TestUpdatePatientRollsBackWhenAuditFails() {
	s.addAlice()
	s.pseudonymize("Patient-11")

	recorder := audit.NewRecorder(failingAuditStore{}, testutil.Logger())
	service := NewService(s.store, recorder, s.cipher, s.db, testutil.Logger(), testutil.Metrics())

	ok, err := service.UpdatePatient(s.ctx(), s.admin, "Patient-11", PatientUpdate{Diagnosis: "Cold"})
	s.False(ok)
	s.NoError(err)

	patients, listErr := s.store.List(context.Background())
	s.Require().NoError(listErr)
	s.Equal("Flu", patients[0].Diagnosis, "row update must roll back with the failed audit entry")
}

func (s *ServiceSuite) TestGetLogsNewestFirst() {
	s.addAlice()
	s.pseudonymize("Patient-11")

	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Minute))
	ok, err := s.service.UpdatePatient(later, s.admin, "Patient-11", PatientUpdate{Diagnosis: "Cold"})
	s.Require().NoError(err)
	s.Require().True(ok)

	entries, err := s.service.GetLogs(s.ctx())
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(domain.ActionUpdate, entries[0].Action)
	s.Equal(domain.ActionAdd, entries[1].Action)
}
