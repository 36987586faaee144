package models

import "github.com/google/uuid"

const (
	LeaderboardSortPurchases = "totalPurchases"
	LeaderboardSortCheckout  = "checkoutTime"
)

type LeaderboardUser struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type LeaderboardEntry struct {
	Rank            int             `json:"rank"`
	User            LeaderboardUser `json:"user"`
	TotalPurchases  float64         `json:"totalPurchases"`
	FastestCheckout *float64        `json:"fastestCheckout"`
	TotalOrders     int             `json:"totalOrders"`
}
