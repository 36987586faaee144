package handlers

import (
	goerrors "errors"
	"log/slog"
	"net/http"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/utils/response"
	"github.com/kunalverma25/flash-sale-backend/pkg/gateway"
)

type PaymentHandler struct {
	gateway gateway.Client
}

func NewPaymentHandler(gw gateway.Client) *PaymentHandler {
	return &PaymentHandler{gateway: gw}
}

// VerifyTransaction godoc
//	@Summary		Verify a payment transaction
//	@Description	Looks up a transaction recorded by the payment gateway during checkout.
//	@Tags			Payments
//	@Produce		json
//	@Param			transactionId	path		string					true	"Transaction ID (TXN...)"
//	@Success		200				{object}	gateway.Transaction		"Verified transaction"
//	@Failure		401				{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404				{object}	response.ErrorResponse	"Transaction not found"
//	@Security		BearerAuth
//	@Router			/payments/{transactionId}/verify [get]
func (h *PaymentHandler) VerifyTransaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		transactionID := r.PathValue("transactionId")
		if transactionID == "" {
			response.Error(w, errors.BadRequestError("Transaction ID is required"))
			return
		}

		txn, err := h.gateway.Verify(r.Context(), transactionID)
		if err != nil {
			if goerrors.Is(err, gateway.ErrTransactionNotFound) {
				response.Error(w, errors.NotFoundError("Transaction not found"))
				return
			}

			logger.Error("Failed to verify transaction", slog.String("transactionId", transactionID), slog.Any("error", err))
			response.Error(w, errors.ThirdPartyError("Failed to verify transaction").WithError(err))
			return
		}

		response.Success(w, http.StatusOK, txn)
	}
}
