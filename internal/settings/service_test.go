package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.StoreSettings{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	seed := &models.StoreSettings{
		ID:                    uuid.New(),
		StoreOpen:             true,
		FreeShippingThreshold: decimal.NewFromFloat(299.00),
		FlatShippingRate:      decimal.NewFromFloat(29.90),
	}
	if err := conn.Create(seed).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn
}

func TestQuoteShipping(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		subtotal string
		want     string
	}{
		{"298.99", "29.9"},
		{"299.00", "0"},
		{"350.00", "0"},
		{"10.00", "29.9"},
	}
	for _, tc := range cases {
		subtotal, _ := decimal.NewFromString(tc.subtotal)
		got, err := svc.QuoteShipping(ctx, subtotal)
		if err != nil {
			t.Fatalf("QuoteShipping(%s): %v", tc.subtotal, err)
		}
		if got.String() != tc.want {
			t.Errorf("QuoteShipping(%s) = %s, want %s", tc.subtotal, got, tc.want)
		}
	}
}

func TestUpdateAndIsOpen(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	open, err := svc.IsOpen(ctx)
	if err != nil || !open {
		t.Fatalf("expected store open, got %v/%v", open, err)
	}

	closed := false
	if _, err := svc.Update(ctx, UpdateInput{StoreOpen: &closed}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	open, err = svc.IsOpen(ctx)
	if err != nil || open {
		t.Fatalf("expected store closed, got %v/%v", open, err)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Update(ctx, UpdateInput{}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty update, got %v", err)
	}

	negative := decimal.NewFromInt(-1)
	if _, err := svc.Update(ctx, UpdateInput{FlatShippingRate: &negative}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative rate, got %v", err)
	}
}
