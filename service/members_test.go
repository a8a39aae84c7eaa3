package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satheeshds/invoicing/auth"
	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/db"
	"github.com/satheeshds/invoicing/models"
)

func newMemberService() (*MemberService, *db.MemoryStore) {
	store := db.NewMemoryStore()
	return NewMemberService(store, zerolog.Nop()), store
}

func TestMemberCreate(t *testing.T) {
	svc, store := newMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, models.MemberInput{
		Name:     "Asha Patel",
		Username: " asha ",
		Email:    "asha@example.com",
		Password: "long-enough",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha", m.Username)
	assert.Equal(t, models.RoleMember, m.Role)
	assert.Equal(t, models.MemberActive, m.Status)

	stored, err := store.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "long-enough"))
}

func TestMemberCreateValidation(t *testing.T) {
	svc, _ := newMemberService()
	ctx := context.Background()

	tests := []struct {
		name  string
		input models.MemberInput
	}{
		{"missing password", models.MemberInput{Name: "A", Username: "a", Email: "a@x.io"}},
		{"short password", models.MemberInput{Name: "A", Username: "a", Email: "a@x.io", Password: "short"}},
		{"bad email", models.MemberInput{Name: "A", Username: "a", Email: "nope", Password: "long-enough"}},
		{"bad role", models.MemberInput{Name: "A", Username: "a", Email: "a@x.io", Password: "long-enough", Role: "Owner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			var vErr *billing.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestMemberCreateDuplicateUsername(t *testing.T) {
	svc, _ := newMemberService()
	ctx := context.Background()
	in := models.MemberInput{Name: "A", Username: "dup", Email: "a@x.io", Password: "long-enough"}

	_, err := svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = svc.Create(ctx, in)
	var conflict *billing.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)
}

func TestMemberUpdateKeepsPassword(t *testing.T) {
	svc, store := newMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, models.MemberInput{Name: "A", Username: "a", Email: "a@x.io", Password: "long-enough"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, m.ID, models.MemberInput{Name: "A B", Username: "a", Email: "a@x.io", Role: models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, "A B", updated.Name)
	assert.Equal(t, models.RoleManager, updated.Role)

	stored, err := store.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "long-enough"))

	_, err = svc.Update(ctx, m.ID+100, models.MemberInput{Name: "x", Username: "x", Email: "x@x.io"})
	assert.ErrorIs(t, err, billing.ErrNotFound)
}

func TestMemberDelete(t *testing.T) {
	svc, _ := newMemberService()
	ctx := context.Background()

	m, err := svc.Create(ctx, models.MemberInput{Name: "A", Username: "a", Email: "a@x.io", Password: "long-enough"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, m.ID))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.ErrorIs(t, svc.Delete(ctx, m.ID), billing.ErrNotFound)
}
