package service

import (
	"time"

	"eventquote_backend/internal/quotations/lifecycle"
	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/quotations/repository"
	"eventquote_backend/internal/quotations/transport"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildSnapshot freezes the resolved lines and costs of a quotation. Nothing in
// the result references live catalog prices.
func buildSnapshot(q *repository.Quotation, sel *pricedSelection, now time.Time) ([]repository.QuotationLine, []repository.QuotationCost) {
	lines := make([]repository.QuotationLine, len(sel.Lines))
	for i, l := range sel.Lines {
		var published decimal.NullDecimal
		if l.PublishedPrice != nil {
			published = decimal.NewNullDecimal(pricing.Round(*l.PublishedPrice))
		}
		lines[i] = repository.QuotationLine{
			ID:               uuid.New(),
			QuotationID:      q.ID,
			OrganizationID:   q.OrganizationID,
			CatalogServiceID: l.CatalogServiceID,
			SectionName:      l.SectionName,
			CategoryName:     l.CategoryName,
			ItemName:         l.Name,
			UnitPrice:        l.UnitPrice,
			UnitCost:         l.UnitCost,
			UnitOverhead:     l.UnitOverhead,
			UnitUtility:      pricing.UnitUtility(l.UnitPrice, l.UnitCost, l.UnitOverhead),
			PublishedPrice:   published,
			UtilityType:      string(l.UtilityType),
			IsCustom:         l.IsCustom,
			Quantity:         l.Quantity,
			Position:         i,
			CreatedAt:        now,
		}
	}

	costs := make([]repository.QuotationCost, len(sel.Costs))
	for i, c := range sel.Costs {
		costs[i] = repository.QuotationCost{
			ID:             uuid.New(),
			QuotationID:    q.ID,
			OrganizationID: q.OrganizationID,
			Name:           c.Name,
			Amount:         pricing.Round(c.Amount),
			Kind:           string(c.Kind),
			Position:       i,
		}
	}
	return lines, costs
}

func toQuotationResponse(q *repository.Quotation, lines []repository.QuotationLine, costs []repository.QuotationCost) *transport.QuotationResponse {
	resp := &transport.QuotationResponse{
		ID:                    q.ID,
		EventID:               q.EventID,
		Name:                  q.Name,
		Description:           q.Description,
		CommercialConditionID: q.CommercialConditionID,
		PaymentMethod:         q.PaymentMethod,
		Subtotal:              money(q.Subtotal),
		NetCosts:              money(q.NetCosts),
		Total:                 money(q.Total),
		PriceMode:             q.PriceMode,
		Status:                q.Status,
		VisibleToClient:       q.VisibleToClient,
		ArchivedAt:            q.ArchivedAt,
		Lines:                 make([]transport.LineSnapshotResponse, len(lines)),
		Costs:                 make([]transport.CostResponse, len(costs)),
		CreatedAt:             q.CreatedAt,
		UpdatedAt:             q.UpdatedAt,
	}

	for i, l := range lines {
		var published *string
		if l.PublishedPrice.Valid {
			published = moneyPtr(&l.PublishedPrice.Decimal)
		}
		resp.Lines[i] = transport.LineSnapshotResponse{
			ID:               l.ID,
			CatalogServiceID: l.CatalogServiceID,
			SectionName:      l.SectionName,
			CategoryName:     l.CategoryName,
			ItemName:         l.ItemName,
			UnitPrice:        money(l.UnitPrice),
			UnitCost:         money(l.UnitCost),
			UnitOverhead:     money(l.UnitOverhead),
			UnitUtility:      money(l.UnitUtility),
			PublishedPrice:   published,
			UtilityType:      l.UtilityType,
			IsCustom:         l.IsCustom,
			Quantity:         l.Quantity,
			LineTotal:        money(pricing.LineSubtotal(l.UnitPrice, l.Quantity)),
			Position:         l.Position,
		}
	}
	for i, c := range costs {
		resp.Costs[i] = transport.CostResponse{
			Name:     c.Name,
			Amount:   money(c.Amount),
			Kind:     c.Kind,
			Position: c.Position,
		}
	}
	return resp
}

func toSummaryResponse(q repository.Quotation) transport.QuotationSummaryResponse {
	return transport.QuotationSummaryResponse{
		ID:              q.ID,
		EventID:         q.EventID,
		Name:            q.Name,
		Total:           money(q.Total),
		PriceMode:       q.PriceMode,
		Status:          q.Status,
		VisibleToClient: q.VisibleToClient,
		ArchivedAt:      q.ArchivedAt,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}

func toPricedLineResponses(lines []resolvedLine) []transport.PricedLineResponse {
	out := make([]transport.PricedLineResponse, len(lines))
	for i, l := range lines {
		out[i] = transport.PricedLineResponse{
			CatalogServiceID: l.CatalogServiceID,
			Name:             l.Name,
			SectionName:      l.SectionName,
			CategoryName:     l.CategoryName,
			UtilityType:      string(l.UtilityType),
			IsCustom:         l.IsCustom,
			IsManualPrice:    l.IsManualPrice,
			Quantity:         l.Quantity,
			UnitPrice:        money(l.UnitPrice),
			SystemPrice:      moneyPtr(l.SystemPrice),
			PublishedPrice:   moneyPtr(l.PublishedPrice),
			UnitCost:         money(l.UnitCost),
			UnitOverhead:     money(l.UnitOverhead),
			UnitUtility:      money(pricing.UnitUtility(l.UnitPrice, l.UnitCost, l.UnitOverhead)),
			LineTotal:        money(pricing.LineSubtotal(l.UnitPrice, l.Quantity)),
		}
	}
	return out
}

func toCostResponses(costs []transport.CostRequest) []transport.CostResponse {
	out := make([]transport.CostResponse, len(costs))
	for i, c := range costs {
		out[i] = transport.CostResponse{Name: c.Name, Amount: money(c.Amount), Kind: c.Kind, Position: i}
	}
	return out
}

func toStepResultResponses(results []lifecycle.StepResult) []transport.StepResultResponse {
	out := make([]transport.StepResultResponse, len(results))
	for i, r := range results {
		out[i] = transport.StepResultResponse{
			Step:       string(r.Step),
			Status:     string(r.Status),
			Error:      r.Error,
			Attempts:   r.Attempts,
			FinishedAt: r.FinishedAt,
		}
	}
	return out
}

func toCascadeRunResponse(run repository.CascadeRun) transport.CascadeRunResponse {
	steps := make([]transport.StepResultResponse, len(run.Steps))
	for i, st := range run.Steps {
		var msg string
		if st.Error != nil {
			msg = *st.Error
		}
		steps[i] = transport.StepResultResponse{
			Step:       st.Step,
			Status:     st.Status,
			Error:      msg,
			Attempts:   st.Attempts,
			FinishedAt: st.UpdatedAt,
		}
	}
	return transport.CascadeRunResponse{
		ID:         run.ID,
		Action:     run.Action,
		FromStatus: run.FromStatus,
		ToStatus:   run.ToStatus,
		Partial:    run.Partial,
		Steps:      steps,
		CreatedAt:  run.CreatedAt,
		UpdatedAt:  run.UpdatedAt,
	}
}

func toStepRecords(runID uuid.UUID, results []lifecycle.StepResult) []repository.CascadeStep {
	out := make([]repository.CascadeStep, len(results))
	for i, r := range results {
		out[i] = repository.CascadeStep{
			RunID:     runID,
			Step:      string(r.Step),
			Position:  i,
			Status:    string(r.Status),
			Error:     nilIfEmpty(r.Error),
			Attempts:  r.Attempts,
			UpdatedAt: r.FinishedAt,
		}
	}
	return out
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
