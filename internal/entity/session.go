package entity

import "github.com/rocketscienceinc/multisig-tictactoe/internal/sui"

// Session remembers which game and mark a shared account is playing so a restarted client
// can resume without enumerating owned objects.
type Session struct {
	Shared sui.Address  `json:"shared"`
	GameID sui.ObjectID `json:"game_id"`
	MarkID sui.ObjectID `json:"mark_id"`
	Side   Side         `json:"side"`
}
