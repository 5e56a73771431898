// internal/services/reference_service.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/repositories"
)

// ReferenceService is plain CRUD over a lookup table; none of these writes
// are gated by approval.
type ReferenceService[T any] struct {
	repo repositories.ReferenceRepository[T]
}

func NewReferenceService[T any](repo repositories.ReferenceRepository[T]) *ReferenceService[T] {
	return &ReferenceService[T]{repo: repo}
}

func (s *ReferenceService[T]) Options() repositories.ReferenceOptions {
	return s.repo.Options()
}

func (s *ReferenceService[T]) Create(ctx context.Context, record *T) (*T, error) {
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *ReferenceService[T]) Get(ctx context.Context, id uuid.UUID, populate []string) (*T, error) {
	return s.repo.FindByID(ctx, id, populate)
}

func (s *ReferenceService[T]) List(ctx context.Context, params repositories.ListParams) ([]T, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *ReferenceService[T]) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*T, error) {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id, s.repo.Options().DefaultPopulate)
}

func (s *ReferenceService[T]) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Request bodies for the reference tables. Model builds the record to insert;
// Patch returns only the fields that were sent.

type CurrencyRequest struct {
	Code   string `json:"code" validate:"required,len=3,alpha"`
	Name   string `json:"name" validate:"omitempty,max=100"`
	Symbol string `json:"symbol" validate:"omitempty,max=10"`
}

func (r CurrencyRequest) Model() *models.Currency {
	return &models.Currency{Code: strings.ToUpper(strings.TrimSpace(r.Code)), Name: r.Name, Symbol: r.Symbol}
}

type CurrencyUpdateRequest struct {
	Code   *string `json:"code,omitempty" validate:"omitempty,len=3,alpha"`
	Name   *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Symbol *string `json:"symbol,omitempty" validate:"omitempty,max=10"`
}

func (r CurrencyUpdateRequest) Patch() map[string]interface{} {
	patch := map[string]interface{}{}
	if r.Code != nil {
		patch["code"] = strings.ToUpper(strings.TrimSpace(*r.Code))
	}
	setString(patch, "name", r.Name)
	setString(patch, "symbol", r.Symbol)
	return patch
}

type SalesChannelRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (r SalesChannelRequest) Model() *models.SalesChannel {
	return &models.SalesChannel{Name: r.Name, Description: r.Description}
}

type SalesChannelUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
}

func (r SalesChannelUpdateRequest) Patch() map[string]interface{} {
	patch := map[string]interface{}{}
	setString(patch, "name", r.Name)
	setString(patch, "description", r.Description)
	return patch
}

type VendorRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Slug         string `json:"slug" validate:"required,max=255,slug"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

func (r VendorRequest) Model() *models.Vendor {
	return &models.Vendor{Name: r.Name, Slug: r.Slug, ContactEmail: r.ContactEmail}
}

type VendorUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Slug         *string `json:"slug,omitempty" validate:"omitempty,max=255,slug"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
}

func (r VendorUpdateRequest) Patch() map[string]interface{} {
	patch := map[string]interface{}{}
	setString(patch, "name", r.Name)
	setString(patch, "slug", r.Slug)
	setString(patch, "contact_email", r.ContactEmail)
	return patch
}

type ProductRequest struct {
	Title       string               `json:"title" validate:"required,min=1,max=255"`
	Slug        string               `json:"slug" validate:"required,max=255,slug"`
	SKU         string               `json:"sku" validate:"omitempty,max=100"`
	Description string               `json:"description"`
	Status      models.ProductStatus `json:"status" validate:"omitempty,oneof=draft active archived suspended"`
	Tags        []string             `json:"tags"`
	CategoryID  *uuid.UUID           `json:"category_id"`
	VendorID    *uuid.UUID           `json:"vendor_id"`
}

func (r ProductRequest) Model() *models.Product {
	status := r.Status
	if status == "" {
		status = models.ProductStatusDraft
	}
	return &models.Product{
		Title:       r.Title,
		Slug:        r.Slug,
		SKU:         r.SKU,
		Description: r.Description,
		Status:      status,
		Tags:        pq.StringArray(r.Tags),
		CategoryID:  r.CategoryID,
		VendorID:    r.VendorID,
	}
}

type ProductUpdateRequest struct {
	Title       *string               `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Slug        *string               `json:"slug,omitempty" validate:"omitempty,max=255,slug"`
	SKU         *string               `json:"sku,omitempty" validate:"omitempty,max=100"`
	Description *string               `json:"description,omitempty"`
	Status      *models.ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active archived suspended"`
	Tags        *[]string             `json:"tags,omitempty"`
	CategoryID  *uuid.UUID            `json:"category_id,omitempty"`
	VendorID    *uuid.UUID            `json:"vendor_id,omitempty"`
}

func (r ProductUpdateRequest) Patch() map[string]interface{} {
	patch := map[string]interface{}{}
	setString(patch, "title", r.Title)
	setString(patch, "slug", r.Slug)
	setString(patch, "sku", r.SKU)
	setString(patch, "description", r.Description)
	if r.Status != nil {
		patch["status"] = *r.Status
	}
	if r.Tags != nil {
		patch["tags"] = pq.StringArray(*r.Tags)
	}
	if r.CategoryID != nil {
		patch["category_id"] = *r.CategoryID
	}
	if r.VendorID != nil {
		patch["vendor_id"] = *r.VendorID
	}
	return patch
}

func setString(patch map[string]interface{}, column string, value *string) {
	if value != nil {
		patch[column] = *value
	}
}
