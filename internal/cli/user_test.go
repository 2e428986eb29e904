package cli

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUsers struct {
	repository.UserRepository
	byEmail  map[string]*entity.User
	assigned map[uuid.UUID]uint
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) AssignRole(_ context.Context, userID uuid.UUID, roleID uint) error {
	f.assigned[userID] = roleID
	return nil
}

type fakeRoles map[string]*entity.Role

func (f fakeRoles) GetByName(_ context.Context, name string) (*entity.Role, error) {
	return f[name], nil
}

type fakeClinics struct {
	repository.ClinicRepository
	byCode map[string]*entity.Clinic
}

func (f *fakeClinics) GetByCode(_ context.Context, code string) (*entity.Clinic, error) {
	return f.byCode[code], nil
}

func newStaffRepos() (staffRepos, *fakeUsers, *entity.Clinic) {
	clinic := &entity.Clinic{ID: uuid.New(), Name: "Clinic A", ClinicCode: "CLINICA"}
	users := &fakeUsers{byEmail: map[string]*entity.User{}, assigned: map[uuid.UUID]uint{}}
	return staffRepos{
		tx:      passthroughTx{},
		users:   users,
		roles:   fakeRoles{"cashier": {ID: 3, Name: "cashier"}},
		clinics: &fakeClinics{byCode: map[string]*entity.Clinic{"CLINICA": clinic}},
	}, users, clinic
}

func TestCreateStaffUser(t *testing.T) {
	repos, users, clinic := newStaffRepos()

	user, err := createStaffUser(context.Background(), repos, staffInput{
		Email:      "  Cashier@Clinic.VN ",
		Password:   "secret123",
		FirstName:  "Lan",
		LastName:   "Nguyen",
		Role:       "cashier",
		ClinicCode: "clinica",
	})
	require.NoError(t, err)

	assert.Equal(t, "cashier@clinic.vn", user.Email)
	assert.Equal(t, "cashier", user.Username)
	require.NotNil(t, user.ClinicID)
	assert.Equal(t, clinic.ID, *user.ClinicID)
	assert.True(t, utils.CheckPasswordHash("secret123", user.Password))
	assert.Equal(t, uint(3), users.assigned[user.ID])
}

func TestCreateStaffUser_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input staffInput
		want  string
	}{
		{"unknown role", staffInput{Email: "a@b.vn", Password: "secret123", FirstName: "A", Role: "owner"}, "unknown role"},
		{"unknown clinic", staffInput{Email: "a@b.vn", Password: "secret123", FirstName: "A", Role: "cashier", ClinicCode: "NOPE"}, "unknown clinic"},
		{"invalid email", staffInput{Email: "nobody", Password: "secret123", FirstName: "A", Role: "cashier"}, "--email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, users, _ := newStaffRepos()

			_, err := createStaffUser(context.Background(), repos, tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, users.assigned)
		})
	}
}

func TestCreateStaffUser_DuplicateEmail(t *testing.T) {
	repos, users, _ := newStaffRepos()
	users.byEmail["a@b.vn"] = &entity.User{ID: uuid.New(), Email: "a@b.vn"}

	_, err := createStaffUser(context.Background(), repos, staffInput{Email: "a@b.vn", Password: "secret123", FirstName: "A", Role: "cashier"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

type sweepRepo struct {
	repository.IdempotencyRepository
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (r *sweepRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, now)
	return 1, r.err
}

func (r *sweepRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestSweepIdempotencyKeys(t *testing.T) {
	fixed := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	repo := &sweepRepo{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweepIdempotencyKeys(ctx, repo, 5*time.Millisecond, func() time.Time { return fixed })
		close(done)
	}()

	// errors are logged, the sweep keeps going
	require.Eventually(t, func() bool { return repo.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, fixed, repo.calls[0])
}
