package model_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

func TestRecomputeTotal(t *testing.T) {
	order := model.Order{
		Lines: []model.OrderLine{
			{Quantity: 2, UnitPrice: 1200},
			{Quantity: 3, UnitPrice: 400},
		},
	}
	order.RecomputeTotal()

	if order.Lines[0].TotalPrice != 2400 {
		t.Errorf("line 0 total = %v, want 2400", order.Lines[0].TotalPrice)
	}
	if order.Lines[1].TotalPrice != 1200 {
		t.Errorf("line 1 total = %v, want 1200", order.Lines[1].TotalPrice)
	}
	if order.TotalAmount != 3600 {
		t.Errorf("order total = %v, want 3600", order.TotalAmount)
	}

	order.Lines = order.Lines[:1]
	order.RecomputeTotal()
	if order.TotalAmount != 2400 {
		t.Errorf("order total after removal = %v, want 2400", order.TotalAmount)
	}

	order.Lines = nil
	order.RecomputeTotal()
	if order.TotalAmount != 0 {
		t.Errorf("order total with no lines = %v, want 0", order.TotalAmount)
	}
}

func TestRequestedByKey_AggregatesSameKey(t *testing.T) {
	order := model.Order{
		Lines: []model.OrderLine{
			{City: "Laval", Province: "QC", Tier: model.TierEvaluated, Quantity: 2},
			{City: "Laval", Province: "QC", Tier: model.TierEvaluated, Quantity: 1},
			{City: "Laval", Province: "QC", Tier: model.TierCVOnly, Quantity: 4},
		},
	}

	requested := order.RequestedByKey()
	if len(requested) != 2 {
		t.Fatalf("expected 2 distinct keys, got %d", len(requested))
	}
	evaluated := model.SupplyKey{City: "Laval", Province: "QC", Tier: model.TierEvaluated}
	if requested[evaluated] != 3 {
		t.Errorf("evaluated quantity = %d, want 3", requested[evaluated])
	}
	cvOnly := model.SupplyKey{City: "Laval", Province: "QC", Tier: model.TierCVOnly}
	if requested[cvOnly] != 4 {
		t.Errorf("cv-only quantity = %d, want 4", requested[cvOnly])
	}
}

func TestOrderLine_FindByID(t *testing.T) {
	lineID := uuid.New()
	order := model.Order{
		Lines: []model.OrderLine{{ID: uuid.New()}, {ID: lineID}},
	}
	if order.Line(lineID) == nil {
		t.Error("Line should find an existing line by id")
	}
	if order.Line(uuid.New()) != nil {
		t.Error("Line should return nil for an unknown id")
	}
}

func TestCatalogueItemView_RestrictionGate(t *testing.T) {
	item := model.CatalogueItem{
		Snapshot: model.CandidateSnapshot{
			FullName:           "Marie Tremblay",
			City:               "Laval",
			Province:           "QC",
			ContactEmail:       "marie@example.com",
			ContactPhone:       "514-555-0100",
			Summary:            "Cook with 5 years of experience",
			Experience:         "Restaurant ABC, 2019-2024",
			SituationalAnswers: "Q1: ...",
			CVURL:              "https://files.example.com/cv.pdf",
			VideoURL:           "https://files.example.com/intro.mp4",
		},
	}

	open := item.View(false)
	if open != item.Snapshot {
		t.Error("unrestricted view should return the snapshot unchanged")
	}

	restricted := item.View(true)
	if restricted.ContactEmail != "" || restricted.ContactPhone != "" {
		t.Error("restricted view must suppress contact details")
	}
	if restricted.VideoURL != "" || restricted.CVURL != "" {
		t.Error("restricted view must suppress video and CV URLs")
	}
	if restricted.Experience != "" {
		t.Error("restricted view must suppress experience detail")
	}
	if restricted.FullName != "Marie Tremblay" || restricted.Summary == "" {
		t.Error("restricted view must keep name and summary")
	}
}
