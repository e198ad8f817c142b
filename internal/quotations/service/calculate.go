package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventquote_backend/internal/quotations/pricing"
	"eventquote_backend/internal/quotations/transport"
	"eventquote_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// resolvedLine is a selected line with every price component settled.
type resolvedLine struct {
	CatalogServiceID *uuid.UUID
	Name             string
	SectionName      string
	CategoryName     string
	UtilityType      pricing.UtilityType
	IsCustom         bool
	IsManualPrice    bool
	Quantity         int
	UnitPrice        decimal.Decimal
	UnitCost         decimal.Decimal
	UnitOverhead     decimal.Decimal
	SystemPrice      *decimal.Decimal
	PublishedPrice   *decimal.Decimal
}

// priced feeds the aggregator. Overhead shapes the suggested price only; the
// guardrail margin is measured against the direct unit cost.
func (l resolvedLine) priced() pricing.PricedLine {
	return pricing.PricedLine{
		UnitPrice: l.UnitPrice,
		UnitCost:  l.UnitCost,
		Quantity:  l.Quantity,
		IsCustom:  l.IsCustom,
	}
}

type pricingInput struct {
	CommercialConditionID *uuid.UUID
	PaymentMethod         string
	Lines                 []transport.LineRequest
	Costs                 []transport.CostRequest
}

// pricedSelection is the aggregator output for one selection of lines.
type pricedSelection struct {
	Lines     []resolvedLine
	Costs     []pricing.AdditionalCost
	Totals    pricing.Totals
	CostTotal decimal.Decimal
	Config    pricing.Configuration
}

// ComputeTotals prices a selection without persisting it. The total is always
// the automatic one.
func (s *Service) ComputeTotals(ctx context.Context, orgID uuid.UUID, req transport.CalculateRequest) (*transport.TotalsResponse, error) {
	sel, err := s.price(ctx, orgID, pricingInput{
		CommercialConditionID: req.CommercialConditionID,
		PaymentMethod:         req.PaymentMethod,
		Lines:                 req.Lines,
		Costs:                 req.Costs,
	})
	if err != nil {
		return nil, err
	}

	return &transport.TotalsResponse{
		Subtotal:  money(sel.Totals.SubtotalServices),
		NetCosts:  money(sel.Totals.NetAdditionalCosts),
		Total:     money(sel.Totals.Automatic()),
		Mode:      string(pricing.ModeAutomatic),
		CostTotal: money(sel.CostTotal),
		Lines:     toPricedLineResponses(sel.Lines),
	}, nil
}

// price loads the pricing configuration and the referenced catalog entries
// concurrently, then resolves every line and aggregates the totals.
func (s *Service) price(ctx context.Context, orgID uuid.UUID, in pricingInput) (*pricedSelection, error) {
	ids := catalogIDs(in.Lines)

	var (
		cfg      pricing.Configuration
		services []CatalogService
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.config.FetchPricingConfiguration(gctx, orgID)
		return err
	})
	if len(ids) > 0 {
		g.Go(func() error {
			var err error
			services, err = s.catalog.GetServicesByIDs(gctx, orgID, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.persistErr("load pricing inputs", err)
	}

	if in.CommercialConditionID != nil {
		if _, ok := cfg.Condition(*in.CommercialConditionID); !ok {
			return nil, apperr.Validation("unknown commercial condition").
				WithDetails(pricing.FieldErrors{"commercialConditionId": "not found"})
		}
	}

	byID := make(map[uuid.UUID]CatalogService, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	fields := pricing.FieldErrors{}
	lines := make([]resolvedLine, 0, len(in.Lines))
	for i, req := range in.Lines {
		line, err := resolveLine(req, byID, cfg, in)
		if err != nil {
			var fe pricing.FieldErrors
			var domainErr *apperr.Error
			if errors.As(err, &domainErr) {
				fe, _ = domainErr.Details.(pricing.FieldErrors)
			}
			if fe == nil {
				return nil, err
			}
			for k, v := range fe {
				fields[fmt.Sprintf("lines[%d].%s", i, k)] = v
			}
			continue
		}
		lines = append(lines, line)
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid quotation lines").WithDetails(fields)
	}

	costs := make([]pricing.AdditionalCost, len(in.Costs))
	for i, c := range in.Costs {
		costs[i] = pricing.AdditionalCost{
			Name:   strings.TrimSpace(c.Name),
			Amount: c.Amount,
			Kind:   pricing.CostKind(c.Kind),
		}
	}

	priced := make([]pricing.PricedLine, len(lines))
	for i, l := range lines {
		priced[i] = l.priced()
	}
	if err := pricing.ValidateInputs(priced, costs); err != nil {
		return nil, err
	}

	return &pricedSelection{
		Lines:     lines,
		Costs:     costs,
		Totals:    pricing.Aggregate(priced, costs),
		CostTotal: pricing.CostTotal(priced),
		Config:    cfg,
	}, nil
}

// resolveLine settles one line. The unit price is, in order of precedence,
// the manual unit price, the carried or custom unit price, and the rate model.
func resolveLine(req transport.LineRequest, catalog map[uuid.UUID]CatalogService, cfg pricing.Configuration, in pricingInput) (resolvedLine, error) {
	line := resolvedLine{Quantity: req.Quantity}

	if req.CatalogServiceID == nil {
		name := strings.TrimSpace(req.Name)
		fields := pricing.FieldErrors{}
		if name == "" {
			fields["name"] = "required for custom lines"
		}
		if req.UnitPrice == nil && req.ManualUnitPrice == nil {
			fields["unitPrice"] = "required for custom lines"
		}
		utility := pricing.UtilityType(req.UtilityType)
		if utility == "" {
			utility = pricing.UtilityService
		}
		if !utility.Valid() {
			fields["utilityType"] = "unknown utility type"
		}
		if len(fields) > 0 {
			return line, apperr.Validation("invalid custom line").WithDetails(fields)
		}

		line.Name = name
		line.SectionName = strings.TrimSpace(req.SectionName)
		line.CategoryName = strings.TrimSpace(req.CategoryName)
		line.UtilityType = utility
		line.IsCustom = true
		line.UnitCost = decimal.Zero
		line.UnitOverhead = decimal.Zero
		if req.ManualUnitPrice != nil {
			line.UnitPrice = pricing.Round(*req.ManualUnitPrice)
			line.IsManualPrice = true
		} else {
			line.UnitPrice = pricing.Round(*req.UnitPrice)
		}
		return line, nil
	}

	svc, ok := catalog[*req.CatalogServiceID]
	if !ok {
		return line, apperr.Validation("unknown catalog service").
			WithDetails(pricing.FieldErrors{"catalogServiceId": "unknown or inactive service"})
	}

	system, err := pricing.SuggestPrice(pricing.RateInput{
		UnitCost:              svc.UnitCost,
		UnitOverhead:          svc.UnitOverhead,
		UtilityType:           svc.UtilityType,
		PaymentMethod:         in.PaymentMethod,
		CommercialConditionID: in.CommercialConditionID,
	}, cfg)
	if err != nil {
		return line, err
	}

	id := svc.ID
	line.CatalogServiceID = &id
	line.Name = svc.Name
	line.SectionName = svc.SectionName
	line.CategoryName = svc.CategoryName
	line.UtilityType = svc.UtilityType
	line.UnitCost = pricing.Round(svc.UnitCost)
	line.UnitOverhead = pricing.Round(svc.UnitOverhead)
	line.SystemPrice = &system
	line.PublishedPrice = svc.PublishedPrice

	switch {
	case req.ManualUnitPrice != nil:
		line.UnitPrice = pricing.Round(*req.ManualUnitPrice)
		line.IsManualPrice = true
	case req.UnitPrice != nil:
		line.UnitPrice = pricing.Round(*req.UnitPrice)
	default:
		line.UnitPrice = system
	}
	return line, nil
}

func catalogIDs(lines []transport.LineRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if l.CatalogServiceID == nil {
			continue
		}
		if _, ok := seen[*l.CatalogServiceID]; ok {
			continue
		}
		seen[*l.CatalogServiceID] = struct{}{}
		ids = append(ids, *l.CatalogServiceID)
	}
	return ids
}

func money(d decimal.Decimal) string {
	return pricing.Round(d).StringFixed(2)
}

func moneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	v := money(*d)
	return &v
}

// PricedCatalog lists the catalog with the rate model's current unit price for
// every entry under the given payment method and commercial condition.
func (s *Service) PricedCatalog(ctx context.Context, orgID uuid.UUID, eventTypeID *uuid.UUID, paymentMethod string, conditionID *uuid.UUID) ([]transport.CatalogServiceResponse, error) {
	var (
		cfg      pricing.Configuration
		services []CatalogService
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.config.FetchPricingConfiguration(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		services, err = s.catalog.FetchCatalog(gctx, orgID, eventTypeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.persistErr("load catalog", err)
	}

	out := make([]transport.CatalogServiceResponse, 0, len(services))
	for _, svc := range services {
		price, err := pricing.SuggestPrice(pricing.RateInput{
			UnitCost:              svc.UnitCost,
			UnitOverhead:          svc.UnitOverhead,
			UtilityType:           svc.UtilityType,
			PaymentMethod:         paymentMethod,
			CommercialConditionID: conditionID,
		}, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, transport.CatalogServiceResponse{
			ID:             svc.ID,
			Name:           svc.Name,
			SectionName:    svc.SectionName,
			CategoryName:   svc.CategoryName,
			UnitCost:       money(svc.UnitCost),
			UnitOverhead:   money(svc.UnitOverhead),
			UtilityType:    string(svc.UtilityType),
			PublishedPrice: moneyPtr(svc.PublishedPrice),
			SystemPrice:    money(price),
		})
	}
	return out, nil
}
