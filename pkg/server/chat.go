package server

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/cardtable/pokerroom/internal/db"
)

const maxChatLen = 500

// PostChat appends a player message to the room's chat. The message is tagged
// with the current hand phase when one is in flight, so history reads like a
// hand transcript.
func (s *Server) PostChat(ctx context.Context, user UserInfo, roomID, body string) error {
	if body == "" || utf8.RuneCountInString(body) > maxChatLen {
		return fmt.Errorf("%w: message must be 1-%d characters", ErrValidation, maxChatLen)
	}
	return s.db.InTx(func(tx *db.Tx) error {
		room, err := tx.RoomByID(roomID)
		if errors.Is(err, db.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		rows, err := tx.SeatsForRoom(room.ID)
		if err != nil {
			return err
		}
		seated := false
		for _, row := range rows {
			if row.UserID == user.ID && row.Active {
				seated = true
				break
			}
		}
		if !seated {
			return ErrForbidden
		}

		phase := ""
		if handRow, err := tx.OpenHand(room.ID); err == nil {
			phase = handRow.Phase
		} else if !errors.Is(err, db.ErrNotFound) {
			return err
		}
		uid := user.ID
		return tx.InsertChat(room.ID, &uid, body, phase)
	})
}
