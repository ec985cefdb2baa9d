package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-chi/chi/v5"

	"aucwatch/internal/domain/entity"
	"aucwatch/pkg/errcodes"
	"aucwatch/pkg/httpx/reply"
)

const (
	defaultHistoryWindow = 7 * 24 * time.Hour
	defaultHistoryLimit  = 500
)

type historyRepository interface {
	ListByItem(ctx context.Context, itemID string, since time.Time, limit int) ([]entity.PriceRecord, error)
}

type HistoryServer struct {
	history historyRepository
}

func NewHistoryServer(history historyRepository) HistoryServer {
	return HistoryServer{
		history: history,
	}
}

func (s HistoryServer) getV1ItemHistory(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		return failure.NewInvalidArgumentError(
			"itemID is required",
			failure.WithCode(errcodes.InvalidItemID),
			failure.WithDescription("itemID is required"),
		)
	}

	query := r.URL.Query()

	window := defaultHistoryWindow
	if hours := intQueryParam(query.Get("hours"), 0); hours > 0 {
		window = time.Duration(hours) * time.Hour
	}

	limit := intQueryParam(query.Get("limit"), defaultHistoryLimit)

	records, err := s.history.ListByItem(ctx, itemID, time.Now().Add(-window), limit)
	if err != nil {
		return fmt.Errorf("history.ListByItem: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTHistory(itemID, records))

	return nil
}
