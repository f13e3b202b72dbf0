package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/store"
	"github.com/go-authgate/screenpair/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCode(t *testing.T) {
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(context.Background(), screen.ID, owner.ID)
	require.NoError(t, err)

	assert.Len(t, ac.Code, ActivationCodeLength)
	for _, r := range ac.Code {
		assert.True(t, strings.ContainsRune(util.Base36Alphabet, r), "unexpected rune %q", r)
	}
	assert.Len(t, ac.PollingToken, 32)
	assert.Equal(t, owner.ID, ac.CreatedBy)
	assert.True(t, ac.ExpiresAt.Equal(clock.Now().Add(time.Hour)))
	assert.Nil(t, ac.UsedAt)
	assert.Equal(t, "SCREEN:"+formatID(screen.ID)+":"+ac.Code, ac.QRPayload())
}

func TestCurrentCode(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	t.Run("unknown screen", func(t *testing.T) {
		_, err := svc.CurrentCode(ctx, 99999)
		assert.ErrorIs(t, err, ErrScreenNotFound)
	})

	first, err := svc.CurrentCode(ctx, screen.ID)
	require.NoError(t, err)
	assert.Empty(t, first.CreatedBy, "player-fetched codes have no issuer")

	t.Run("reuses live code", func(t *testing.T) {
		clock.Advance(30 * time.Minute)
		again, err := svc.CurrentCode(ctx, screen.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("refreshes near expiry", func(t *testing.T) {
		clock.Advance(26 * time.Minute) // 4 minutes left
		fresh, err := svc.CurrentCode(ctx, screen.ID)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, fresh.ID)
		assert.True(t, fresh.ExpiresAt.After(first.ExpiresAt))
	})
}

func TestRedeemCode_SingleActiveBindingPerScreen(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	var last *models.DeviceBinding
	for i := range 4 {
		ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
		require.NoError(t, err)
		clock.Advance(time.Second)

		binding, err := svc.RedeemCode(ctx, ac.Code, "player "+formatID(uint(i)), nil)
		require.NoError(t, err)
		require.NotEmpty(t, binding.DeviceToken)
		last = binding
	}

	all, err := s.ListBindingsByScreen(ctx, screen.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)

	live := 0
	for _, b := range all {
		if b.RevokedAt == nil {
			live++
			assert.Equal(t, last.ID, b.ID, "only the newest binding stays live")
		} else {
			assert.Equal(t, models.RevokeReasonSuperseded, b.RevokeReason)
		}
	}
	assert.Equal(t, 1, live)
}

func TestRedeemCode_RetriesBindingConflict(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)

	rejected := failBindingInserts(t, s, 1)
	binding, err := svc.RedeemCode(ctx, ac.Code, "player", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), rejected.Load())
	assert.Equal(t, screen.ID, binding.ScreenID)

	all, err := s.ListBindingsByScreen(ctx, screen.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, binding.ID, all[0].ID)
	assert.Nil(t, all[0].RevokedAt)

	stored, err := s.GetActivationCodeByCode(ctx, ac.Code)
	require.NoError(t, err)
	assert.True(t, stored.IsUsed())
}

func TestRedeemCode_PersistentBindingConflict(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)

	rejected := failBindingInserts(t, s, -1)
	_, err = svc.RedeemCode(ctx, ac.Code, "player", nil)
	require.ErrorIs(t, err, store.ErrBindingConflict)
	assert.Equal(t, int32(maxInstallAttempts), rejected.Load())

	// Rolled back: the code is still redeemable
	stored, err := s.GetActivationCodeByCode(ctx, ac.Code)
	require.NoError(t, err)
	assert.False(t, stored.IsUsed())

	all, err := s.ListBindingsByScreen(ctx, screen.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRedeemCode_OneShot(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	svc := newTestPairingService(t, s, newTestClock())
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)

	_, err = svc.RedeemCode(ctx, ac.Code, "first", nil)
	require.NoError(t, err)

	_, err = svc.RedeemCode(ctx, ac.Code, "second", nil)
	assert.ErrorIs(t, err, ErrCodeUsed)

	pe, ok := AsPairingError(err)
	require.True(t, ok)
	assert.Equal(t, KindCodeUsed, pe.Kind)
}

func TestRedeemCode_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	expired, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	valid, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)

	clock.Set(expired.ExpiresAt.Add(time.Millisecond))
	_, err = svc.RedeemCode(ctx, expired.Code, "", nil)
	assert.ErrorIs(t, err, ErrCodeExpired)

	clock.Set(valid.ExpiresAt.Add(-time.Millisecond))
	_, err = svc.RedeemCode(ctx, valid.Code, "", nil)
	assert.NoError(t, err)
}

func TestRedeemCode_ExactExpiryIsStillValid(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)

	clock.Set(ac.ExpiresAt)
	_, err = svc.RedeemCode(ctx, ac.Code, "", nil)
	assert.NoError(t, err)
}

func TestRedeemCode_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	svc := newTestPairingService(t, s, newTestClock())
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac := &models.ActivationCode{
		ScreenID:     screen.ID,
		Code:         "AB12CD",
		ExpiresAt:    newTestClock().Now().Add(time.Hour),
		PollingToken: "token",
	}
	require.NoError(t, s.CreateActivationCode(ctx, ac))

	binding, err := svc.RedeemCode(ctx, "  ab12cd ", "", nil)
	require.NoError(t, err)
	assert.Equal(t, screen.ID, binding.ScreenID)
}

func TestRedeemCode_Rejections(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	svc := newTestPairingService(t, s, newTestClock())
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)
	other := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		code     string
		expected *uint
		kind     PairingErrorKind
	}{
		{"empty code", "   ", nil, KindCodeNotFound},
		{"unknown code", "ZZZZZZ", nil, KindCodeNotFound},
		{"screen mismatch", ac.Code, &other.ID, KindScreenMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RedeemCode(ctx, tt.code, "", tt.expected)
			pe, ok := AsPairingError(err)
			require.True(t, ok, "expected a pairing error, got %v", err)
			assert.Equal(t, tt.kind, pe.Kind)
		})
	}

	t.Run("matching screen", func(t *testing.T) {
		binding, err := svc.RedeemCode(ctx, ac.Code, "", &screen.ID)
		require.NoError(t, err)
		assert.Equal(t, screen.ID, binding.ScreenID)
	})
}

func TestCheckActivation(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, "")
	require.NoError(t, err)

	status, err := svc.CheckActivation(ctx, screen.ID, ac.Code, ac.PollingToken)
	require.NoError(t, err)
	assert.False(t, status.Activated, "not yet redeemed")

	binding, err := svc.RedeemCode(ctx, ac.Code, "", nil)
	require.NoError(t, err)

	t.Run("wrong polling token", func(t *testing.T) {
		status, err := svc.CheckActivation(ctx, screen.ID, ac.Code, "wrong")
		require.NoError(t, err)
		assert.False(t, status.Activated)
		assert.Empty(t, status.DeviceToken)
	})

	t.Run("wrong screen", func(t *testing.T) {
		status, err := svc.CheckActivation(ctx, screen.ID+1, ac.Code, ac.PollingToken)
		require.NoError(t, err)
		assert.False(t, status.Activated)
	})

	t.Run("hands out token", func(t *testing.T) {
		status, err := svc.CheckActivation(ctx, screen.ID, strings.ToLower(ac.Code), ac.PollingToken)
		require.NoError(t, err)
		assert.True(t, status.Activated)
		assert.Equal(t, binding.DeviceToken, status.DeviceToken)
	})

	t.Run("no token after expiry", func(t *testing.T) {
		clock.Set(ac.ExpiresAt.Add(time.Second))
		status, err := svc.CheckActivation(ctx, screen.ID, ac.Code, ac.PollingToken)
		require.NoError(t, err)
		assert.True(t, status.Activated)
		assert.Empty(t, status.DeviceToken)

		stored, err := s.GetActivationCodeByCode(ctx, ac.Code)
		require.NoError(t, err)
		assert.Empty(t, stored.PickupToken, "expired pickup token is cleared")
	})
}

func TestCheckActivation_NoTokenAfterRevoke(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	svc := newTestPairingService(t, s, newTestClock())
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	binding, err := svc.RedeemCode(ctx, ac.Code, "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeBinding(ctx, owner.ID, binding.ID))

	status, err := svc.CheckActivation(ctx, screen.ID, ac.Code, ac.PollingToken)
	require.NoError(t, err)
	assert.True(t, status.Activated)
	assert.Empty(t, status.DeviceToken)
}

func TestVerifyBinding_ReflectsRevocation(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	until := clock.Now().Add(24 * time.Hour)
	screen := createTestScreen(t, s, owner.ID, &until)

	codeA, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	a, err := svc.RedeemCode(ctx, codeA.Code, "A", nil)
	require.NoError(t, err)

	codeB, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	b, err := svc.RedeemCode(ctx, codeB.Code, "B", nil)
	require.NoError(t, err)

	resA, err := svc.VerifyBinding(ctx, a.DeviceToken, screen.ID)
	require.NoError(t, err)
	assert.False(t, resA.Bound)

	resB, err := svc.VerifyBinding(ctx, b.DeviceToken, screen.ID)
	require.NoError(t, err)
	assert.True(t, resB.Bound)
	assert.Equal(t, b.ID, resB.BindingID)
	assert.True(t, resB.Playable)
}

func TestVerifyBinding_UnknownTokens(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	svc := newTestPairingService(t, s, newTestClock())
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	for _, token := range []string{"", "not-a-token", strings.Repeat("a", 64)} {
		res, err := svc.VerifyBinding(ctx, token, screen.ID)
		require.NoError(t, err)
		assert.False(t, res.Bound)
	}
}

func TestVerifyBinding_TokenIsScreenScoped(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	svc := newTestPairingService(t, s, newTestClock())
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)
	other := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	binding, err := svc.RedeemCode(ctx, ac.Code, "", nil)
	require.NoError(t, err)

	res, err := svc.VerifyBinding(ctx, binding.DeviceToken, other.ID)
	require.NoError(t, err)
	assert.False(t, res.Bound)
}

func TestVerifyBinding_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	binding, err := svc.RedeemCode(ctx, ac.Code, "", nil)
	require.NoError(t, err)

	later := clock.Now().Add(10 * time.Minute)
	clock.Set(later)
	res, err := svc.VerifyBinding(ctx, binding.DeviceToken, screen.ID)
	require.NoError(t, err)
	assert.True(t, res.Bound)
	assert.False(t, res.Playable, "no subscription")

	// A verify carrying an older timestamp must not move last_seen_at back
	clock.Set(later.Add(-5 * time.Minute))
	res, err = svc.VerifyBinding(ctx, binding.DeviceToken, screen.ID)
	require.NoError(t, err)
	assert.True(t, res.Bound)

	stored, err := s.GetBinding(ctx, binding.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RevokedAt)
	require.NotNil(t, stored.LastSeenAt)
	assert.True(t, later.Equal(*stored.LastSeenAt), "last_seen_at = %v", stored.LastSeenAt)

	storedScreen, err := s.GetScreen(ctx, screen.ID)
	require.NoError(t, err)
	require.NotNil(t, storedScreen.LastSeenAt)
	assert.True(t, later.Equal(*storedScreen.LastSeenAt))
}

func TestHeartbeat(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	until := clock.Now().Add(time.Hour)
	screen := createTestScreen(t, s, owner.ID, &until)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	minted, err := svc.RedeemCode(ctx, ac.Code, "", nil)
	require.NoError(t, err)

	binding, err := svc.AuthenticateDevice(ctx, minted.DeviceToken, screen.ID)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	playable, err := svc.Heartbeat(ctx, binding)
	require.NoError(t, err)
	assert.True(t, playable)

	stored, err := s.GetBinding(ctx, binding.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastSeenAt)
	assert.True(t, clock.Now().Equal(*stored.LastSeenAt))

	clock.Advance(2 * time.Hour)
	playable, err = svc.Heartbeat(ctx, binding)
	require.NoError(t, err)
	assert.False(t, playable, "subscription lapsed")

	_, err = svc.AuthenticateDevice(ctx, "bogus", screen.ID)
	assert.ErrorIs(t, err, ErrBindingNotFound)
}

func TestListAndRevokeBindings(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	clock := newTestClock()
	svc := newTestPairingService(t, s, clock)
	owner := createTestUser(t, s, "pw")
	stranger := createTestUser(t, s, "pw")
	screen := createTestScreen(t, s, owner.ID, nil)

	ac, err := svc.IssueCode(ctx, screen.ID, owner.ID)
	require.NoError(t, err)
	binding, err := svc.RedeemCode(ctx, ac.Code, "lobby player", nil)
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		bindings, err := svc.ListBindings(ctx, owner.ID, screen.ID)
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		assert.Equal(t, binding.ID, bindings[0].ID)
		assert.Equal(t, "lobby player", bindings[0].DeviceInfo)
	})

	t.Run("list not owned", func(t *testing.T) {
		_, err := svc.ListBindings(ctx, stranger.ID, screen.ID)
		assert.ErrorIs(t, err, ErrScreenNotFound)
	})

	t.Run("revoke not owned", func(t *testing.T) {
		err := svc.RevokeBinding(ctx, stranger.ID, binding.ID)
		assert.ErrorIs(t, err, ErrBindingNotFound)
	})

	t.Run("revoke unknown", func(t *testing.T) {
		err := svc.RevokeBinding(ctx, owner.ID, 424242)
		assert.ErrorIs(t, err, ErrBindingNotFound)
	})

	t.Run("revoke idempotent", func(t *testing.T) {
		require.NoError(t, svc.RevokeBinding(ctx, owner.ID, binding.ID))
		first, err := s.GetBinding(ctx, binding.ID)
		require.NoError(t, err)
		require.NotNil(t, first.RevokedAt)
		assert.Equal(t, models.RevokeReasonOperator, first.RevokeReason)

		clock.Advance(time.Hour)
		require.NoError(t, svc.RevokeBinding(ctx, owner.ID, binding.ID))
		second, err := s.GetBinding(ctx, binding.ID)
		require.NoError(t, err)
		assert.True(t, first.RevokedAt.Equal(*second.RevokedAt))

		bindings, err := svc.ListBindings(ctx, owner.ID, screen.ID)
		require.NoError(t, err)
		assert.Empty(t, bindings)

		res, err := svc.VerifyBinding(ctx, binding.DeviceToken, screen.ID)
		require.NoError(t, err)
		assert.False(t, res.Bound)
	})
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeCode(" ab12Cd\n"))
	assert.Empty(t, NormalizeCode("   "))
}
