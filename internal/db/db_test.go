package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestAccountBalanceDefaultsToZero(t *testing.T) {
	d := openTestDB(t)
	err := d.InTx(func(tx *Tx) error {
		spendable, bonus, err := tx.AccountBalance("nobody")
		require.NoError(t, err)
		assert.Zero(t, spendable)
		assert.Zero(t, bonus)
		return nil
	})
	require.NoError(t, err)
}

func TestDebitConsumesBonusFirst(t *testing.T) {
	d := openTestDB(t)
	err := d.InTx(func(tx *Tx) error {
		require.NoError(t, tx.Credit("u1", 100, "deposit", "seed"))
		require.NoError(t, tx.GrantBonus("u1", 30, "promo"))

		require.NoError(t, tx.Debit("u1", 50, "buy_in", "table"))

		spendable, bonus, err := tx.AccountBalance("u1")
		require.NoError(t, err)
		assert.EqualValues(t, 80, spendable, "only 20 should come from spendable")
		assert.Zero(t, bonus)
		return nil
	})
	require.NoError(t, err)
}

func TestDebitInsufficientFunds(t *testing.T) {
	d := openTestDB(t)
	err := d.InTx(func(tx *Tx) error {
		require.NoError(t, tx.Credit("u1", 40, "deposit", "seed"))

		err := tx.Debit("u1", 50, "buy_in", "table")
		assert.True(t, errors.Is(err, ErrInsufficientFunds), "err = %v", err)

		// The failed debit must not move anything.
		spendable, _, err := tx.AccountBalance("u1")
		require.NoError(t, err)
		assert.EqualValues(t, 40, spendable)
		return nil
	})
	require.NoError(t, err)
}

func TestInTxRollsBackOnError(t *testing.T) {
	d := openTestDB(t)
	boom := errors.New("boom")
	err := d.InTx(func(tx *Tx) error {
		require.NoError(t, tx.Credit("u1", 100, "deposit", "seed"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = d.InTx(func(tx *Tx) error {
		spendable, _, err := tx.AccountBalance("u1")
		require.NoError(t, err)
		assert.Zero(t, spendable)
		return nil
	})
	require.NoError(t, err)
}

func TestRoomLookups(t *testing.T) {
	d := openTestDB(t)
	err := d.InTx(func(tx *Tx) error {
		_, err := tx.RoomByID("missing")
		assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)

		require.NoError(t, tx.CreateRoom(&Room{
			ID: "r1", Code: "ABCDEF", HostID: "u1", Name: "game",
			MaxSeats: 4, SmallBlind: 10, BigBlind: 20, BuyIn: 100,
			StartingStack: 100, Status: "waiting",
		}))

		byCode, err := tx.RoomByCode("ABCDEF")
		require.NoError(t, err)
		assert.Equal(t, "r1", byCode.ID)

		rooms, err := tx.ListOpenRooms()
		require.NoError(t, err)
		assert.Len(t, rooms, 1)

		require.NoError(t, tx.SetRoomStatus("r1", "finished"))
		rooms, err = tx.ListOpenRooms()
		require.NoError(t, err)
		assert.Empty(t, rooms)
		return nil
	})
	require.NoError(t, err)
}

func TestOpenHandIgnoresFinished(t *testing.T) {
	d := openTestDB(t)
	err := d.InTx(func(tx *Tx) error {
		require.NoError(t, tx.CreateRoom(&Room{
			ID: "r1", Code: "ABCDEF", HostID: "u1", Name: "game",
			MaxSeats: 4, SmallBlind: 10, BigBlind: 20, BuyIn: 100,
			StartingStack: 100, Status: "playing",
		}))
		require.NoError(t, tx.InsertHand(&Hand{
			ID: "h1", RoomID: "r1", Phase: "finished", Community: "[]", Deck: "[]",
		}))
		_, err := tx.OpenHand("r1")
		assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)

		require.NoError(t, tx.InsertHand(&Hand{
			ID: "h2", RoomID: "r1", Phase: "preflop", Community: "[]", Deck: "[]",
		}))
		open, err := tx.OpenHand("r1")
		require.NoError(t, err)
		assert.Equal(t, "h2", open.ID)

		latest, err := tx.LatestHand("r1")
		require.NoError(t, err)
		assert.Equal(t, "h2", latest.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestChatForRoomReturnsRecentChronological(t *testing.T) {
	d := openTestDB(t)
	err := d.InTx(func(tx *Tx) error {
		require.NoError(t, tx.CreateRoom(&Room{
			ID: "r1", Code: "ABCDEF", HostID: "u1", Name: "game",
			MaxSeats: 4, SmallBlind: 10, BigBlind: 20, BuyIn: 100,
			StartingStack: 100, Status: "waiting",
		}))
		uid := "u1"
		require.NoError(t, tx.InsertChat("r1", nil, "system msg", ""))
		require.NoError(t, tx.InsertChat("r1", &uid, "first", "preflop"))
		require.NoError(t, tx.InsertChat("r1", &uid, "second", "preflop"))

		msgs, err := tx.ChatForRoom("r1", 2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "first", msgs[0].Body)
		assert.Equal(t, "second", msgs[1].Body)
		assert.True(t, msgs[0].UserID.Valid)

		all, err := tx.ChatForRoom("r1", 10)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.False(t, all[0].UserID.Valid, "system message should have null user")
		return nil
	})
	require.NoError(t, err)
}
