package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventquote_backend/internal/catalog/repository"
)

func TestToCatalogResponseGroupsBySectionAndCategory(t *testing.T) {
	items := []repository.Service{
		{ID: uuid.New(), SectionName: "Entertainment", CategoryName: "Music", Name: "Band", UnitCost: decimal.RequireFromString("350")},
		{ID: uuid.New(), SectionName: "Entertainment", CategoryName: "Music", Name: "DJ", UnitCost: decimal.RequireFromString("200")},
		{ID: uuid.New(), SectionName: "Entertainment", CategoryName: "Shows", Name: "Magician", UnitCost: decimal.RequireFromString("150")},
		{ID: uuid.New(), SectionName: "Venue", CategoryName: "Halls", Name: "Main hall", UnitCost: decimal.RequireFromString("210"),
			PublishedPrice: decimal.NewNullDecimal(decimal.RequireFromString("320"))},
	}

	resp := toCatalogResponse(items)

	if resp.Total != 4 {
		t.Fatalf("expected total 4, got %d", resp.Total)
	}
	if len(resp.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(resp.Sections))
	}
	entertainment := resp.Sections[0]
	if len(entertainment.Categories) != 2 || len(entertainment.Categories[0].Services) != 2 {
		t.Fatalf("unexpected entertainment grouping: %+v", entertainment)
	}
	hall := resp.Sections[1].Categories[0].Services[0]
	if hall.PublishedPrice == nil || *hall.PublishedPrice != "320.00" {
		t.Fatalf("expected published price 320.00, got %v", hall.PublishedPrice)
	}
	if hall.UnitCost != "210.00" {
		t.Fatalf("expected unit cost 210.00, got %s", hall.UnitCost)
	}
}

func TestToCatalogResponseEmpty(t *testing.T) {
	resp := toCatalogResponse(nil)
	if resp.Sections == nil || len(resp.Sections) != 0 {
		t.Fatalf("expected empty, non-nil sections")
	}
}
