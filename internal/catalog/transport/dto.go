package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Services

type CreateServiceRequest struct {
	CategoryID     uuid.UUID        `json:"categoryId" validate:"required"`
	EventTypeID    *uuid.UUID       `json:"eventTypeId,omitempty"`
	Name           string           `json:"name" validate:"required,min=1,max=200"`
	UnitCost       decimal.Decimal  `json:"unitCost" validate:"money"`
	UnitOverhead   decimal.Decimal  `json:"unitOverhead" validate:"money"`
	UtilityType    string           `json:"utilityType" validate:"required,oneof=service product"`
	PublishedPrice *decimal.Decimal `json:"publishedPrice,omitempty" validate:"omitempty,money"`
}

type UpdateServiceRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	UnitCost       *decimal.Decimal `json:"unitCost,omitempty" validate:"omitempty,money"`
	UnitOverhead   *decimal.Decimal `json:"unitOverhead,omitempty" validate:"omitempty,money"`
	UtilityType    *string          `json:"utilityType,omitempty" validate:"omitempty,oneof=service product"`
	PublishedPrice *decimal.Decimal `json:"publishedPrice,omitempty" validate:"omitempty,money"`
	IsActive       *bool            `json:"isActive,omitempty"`
}

type ListCatalogRequest struct {
	EventTypeID string `form:"eventTypeId" validate:"omitempty,uuid"`
}

type ServiceResponse struct {
	ID             uuid.UUID  `json:"id"`
	CategoryID     uuid.UUID  `json:"categoryId"`
	EventTypeID    *uuid.UUID `json:"eventTypeId,omitempty"`
	Name           string     `json:"name"`
	UnitCost       string     `json:"unitCost"`
	UnitOverhead   string     `json:"unitOverhead"`
	UtilityType    string     `json:"utilityType"`
	PublishedPrice *string    `json:"publishedPrice,omitempty"`
	IsActive       bool       `json:"isActive"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Tree

type CategoryResponse struct {
	Name     string            `json:"name"`
	Services []ServiceResponse `json:"services"`
}

type SectionResponse struct {
	Name       string             `json:"name"`
	Categories []CategoryResponse `json:"categories"`
}

type CatalogResponse struct {
	Sections []SectionResponse `json:"sections"`
	Total    int               `json:"total"`
}
