package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoomWindow is a validated range query: a room and an inclusive
// timestamp interval.
type RoomWindow struct {
	RoomID string
	Start  int64
	End    int64
}

// Empty reports whether no timestamp can fall inside the window.
func (w RoomWindow) Empty() bool {
	return w.Start > w.End
}

// ParseRoomWindow validates caller input for a range query. Missing or
// blank bounds default to 0 and math.MaxInt64.
func ParseRoomWindow(roomID, start, end string) (RoomWindow, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return RoomWindow{}, ErrMissingRoom
	}

	s, err := parseBound(start, 0)
	if err != nil {
		return RoomWindow{}, fmt.Errorf("%w: startTimestamp %q", ErrInvalidTimestamp, start)
	}
	e, err := parseBound(end, math.MaxInt64)
	if err != nil {
		return RoomWindow{}, fmt.Errorf("%w: endTimestamp %q", ErrInvalidTimestamp, end)
	}

	return RoomWindow{RoomID: roomID, Start: s, End: e}, nil
}

func parseBound(raw string, fallback int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
