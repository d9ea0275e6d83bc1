package adaptor

import (
	"net/http"

	"stadium-ticketing/internal/dto/request"
	"stadium-ticketing/internal/usecase"
	"stadium-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type TicketHandler struct {
	service usecase.TicketService
	log     *zap.Logger
}

func NewTicketHandler(service usecase.TicketService, log *zap.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		log:     log.With(zap.String("handler", "ticket")),
	}
}

// BuyTicket handles POST /api/buy (protected)
func (h *TicketHandler) BuyTicket(w http.ResponseWriter, r *http.Request) {
	buyer, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.BuyTicketRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	purchase, err := h.service.Purchase(r.Context(), buyer, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "buy ticket")
		return
	}

	utils.ResponseCreated(w, purchase)
}

// GetUserTickets handles GET /api/user/tickets (protected)
func (h *TicketHandler) GetUserTickets(w http.ResponseWriter, r *http.Request) {
	buyer, ok := utils.IdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	tickets, err := h.service.GetUserTickets(r.Context(), buyer, req)
	if err != nil {
		writeServiceError(w, h.log, err, "get user tickets")
		return
	}

	utils.ResponseSuccess(w, tickets)
}
