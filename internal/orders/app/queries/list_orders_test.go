package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/dualwrite/internal/orders/adapters/memory"
	"github.com/dejobratic/dualwrite/internal/orders/app/queries"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
)

func TestListOrders(t *testing.T) {
	repo := memory.NewRepository()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var orders []domain.Order
	for i := 0; i < 3; i++ {
		orders = append(orders, seedOrder(t, repo, base.Add(time.Duration(i)*time.Minute), "5.00"))
	}
	cancelled, err := orders[0].Cancel(base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(context.Background(), cancelled); err != nil {
		t.Fatal(err)
	}

	handler := queries.NewListOrdersQueryHandler(repo)

	t.Run("defaults return every order newest first", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result) != 3 {
			t.Fatalf("expected 3 orders, got %d", len(result))
		}
		if result[0].ID() != orders[2].ID() {
			t.Errorf("expected newest order first, got %s", result[0].ID())
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		status := domain.StatusCancelled
		result, err := handler.Handle(context.Background(), queries.ListOrdersQuery{Status: &status})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result) != 1 || result[0].ID() != orders[0].ID() {
			t.Errorf("expected only the cancelled order, got %d orders", len(result))
		}
	})

	t.Run("paginates", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), queries.ListOrdersQuery{Page: 2, PageSize: 2})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result) != 1 {
			t.Errorf("expected 1 order on page 2, got %d", len(result))
		}
	})
}

func TestListOrdersQueryValidation(t *testing.T) {
	tests := []struct {
		name    string
		query   queries.ListOrdersQuery
		wantErr bool
	}{
		{"defaults", queries.ListOrdersQuery{}, false},
		{"explicit page", queries.ListOrdersQuery{Page: 3, PageSize: 50}, false},
		{"max page size", queries.ListOrdersQuery{PageSize: queries.MaxPageSize}, false},
		{"negative page", queries.ListOrdersQuery{Page: -1}, true},
		{"negative page size", queries.ListOrdersQuery{PageSize: -5}, true},
		{"page size too large", queries.ListOrdersQuery{PageSize: queries.MaxPageSize + 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
