package service

import (
	"context"
	"fmt"
	"testing"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/features/user/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (UserService, *Resolver) {
	t.Helper()
	r, repo, clk := newResolver(t, false)
	return NewUserService(repo, r, NewLedger(repo, clk, zerolog.Nop())), r
}

func TestListUsersPaginates(t *testing.T) {
	svc, r := newUserService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := r.Resolve(ctx, fmt.Sprintf("62811%03d", i), "")
		require.NoError(t, err)
	}

	page, err := svc.ListUsers(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 2, page.Page)

	last, err := svc.ListUsers(ctx, 3, 10)
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)

	clamped, err := svc.ListUsers(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, MaxPageSize, clamped.Limit)

	all, err := svc.ExportUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 25)
}

func TestUpdateUser(t *testing.T) {
	svc, r := newUserService(t)
	ctx := context.Background()

	u, err := r.Resolve(ctx, "6281111", "Budi")
	require.NoError(t, err)

	premium := models.TierPremium
	balance := int64(1000)
	updated, err := svc.UpdateUser(ctx, u.ID, models.UserUpdate{Tier: &premium, Balance: &balance})
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, updated.Tier)
	assert.Equal(t, int64(1000), updated.Balance)
	assert.Equal(t, "Budi", updated.DisplayName)

	bad := models.Tier("gold")
	_, err = svc.UpdateUser(ctx, u.ID, models.UserUpdate{Tier: &bad})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	_, err = svc.UpdateUser(ctx, 999, models.UserUpdate{Balance: &balance})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestDeleteAndLink(t *testing.T) {
	svc, r := newUserService(t)
	ctx := context.Background()

	u, err := r.Resolve(ctx, "6281111", "Budi")
	require.NoError(t, err)

	linked, err := svc.LinkIdentifier(ctx, u.ID, "5550001@lid")
	require.NoError(t, err)
	assert.Equal(t, []string{"5550001@lid"}, linked.AlternateIDs)

	_, err = svc.LinkIdentifier(ctx, u.ID, "120363@g.us")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	err = svc.DeleteUser(ctx, u.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}
