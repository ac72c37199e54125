package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockRepo struct {
	users      map[int64]*User
	referenced map[int64]bool
	updates    int
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockRepo) UpdateProfile(_ context.Context, id int64, p Profile) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.updates++
	u.Profile = p
	return u, nil
}

func (m *mockRepo) UpdateLocation(_ context.Context, id int64, loc Location) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	m.updates++
	u.Location = &loc
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	if m.referenced[id] {
		return ErrReferenced
	}
	delete(m.users, id)
	return nil
}

// --- Helpers ---

func newTestService() (*Service, *mockRepo) {
	repo := &mockRepo{
		users: map[int64]*User{
			1: {ID: 1, Role: RoleCustomer, Profile: Profile{Email: "ann@example.com"}},
			2: {ID: 2, Role: RoleCustomer},
		},
		referenced: map[int64]bool{2: true},
	}
	return NewService(repo), repo
}

// --- Tests ---

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ann@example.com", true},
		{"a@b", true},
		{"@example.com", false},
		{"ann@", false},
		{"ann", false},
		{"ann@@example.com", false},
		{"a@b@c", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidEmail(tt.email))
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.UpdateProfile(context.Background(), 1, Profile{Email: "not-an-email"})
	require.ErrorIs(t, err, ErrInvalidEmail)
	assert.Zero(t, repo.updates)

	u, err := svc.UpdateProfile(context.Background(), 1, Profile{FirstName: "Ann", Email: " ann@green.bite "})
	require.NoError(t, err)
	assert.Equal(t, "ann@green.bite", u.Profile.Email)
	assert.Equal(t, "Ann", u.Profile.FirstName)

	_, err = svc.UpdateProfile(context.Background(), 9, Profile{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Location(ctx, 1)
	require.ErrorIs(t, err, ErrLocationUnset)

	tests := []struct {
		name    string
		loc     Location
		wantErr bool
	}{
		{name: "origin", loc: Location{}},
		{name: "poles", loc: Location{Latitude: -90, Longitude: 180}},
		{name: "latitude out of range", loc: Location{Latitude: 90.5}, wantErr: true},
		{name: "longitude out of range", loc: Location{Longitude: -181}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateLocation(ctx, 1, tt.loc)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			got, err := svc.Location(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.loc, got)
		})
	}

	_, err = svc.Location(ctx, 7)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService()

	require.ErrorIs(t, svc.Delete(context.Background(), 2), ErrReferenced)
	assert.Contains(t, repo.users, int64(2))

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.NotContains(t, repo.users, int64(1))

	require.ErrorIs(t, svc.Delete(context.Background(), 1), ErrNotFound)
}
