package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	service "github.com/kunalverma25/flash-sale-backend/internal/services"
	"github.com/kunalverma25/flash-sale-backend/internal/utils/response"
)

type LeaderboardHandler struct {
	leaderboardService service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// GetLeaderboard godoc
//	@Summary		Get the buyer leaderboard
//	@Description	Ranks buyers by total purchase value (default) or fastest checkout. Buyers who never completed a checkout are excluded from the checkout-time board.
//	@Tags			Leaderboard
//	@Produce		json
//	@Param			sortBy	query		string						false	"Sort key: totalPurchases | checkoutTime"
//	@Param			limit	query		int							false	"Number of entries (default: 10, max: 100)"
//	@Success		200		{array}		models.LeaderboardEntry		"Ranked entries"
//	@Failure		400		{object}	response.ErrorResponse		"Invalid sort key"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Router			/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		sortBy := r.URL.Query().Get("sortBy")

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit < 1 || limit > 100 {
			limit = 10
		}

		entries, err := h.leaderboardService.Top(r.Context(), sortBy, limit)
		if err != nil {
			logger.Error("Failed to load leaderboard", slog.String("sortBy", sortBy), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, entries)
	}
}
