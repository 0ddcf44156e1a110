package domain

import (
	"strings"
	"time"
)

// Category is a normalized product-type label ("rings", "pendants", ...).
type Category string

// NormalizeCategory lowercases and trims a raw product_type value.
func NormalizeCategory(raw string) Category {
	return Category(strings.ToLower(strings.TrimSpace(raw)))
}

// ProductStatus mirrors the Shopify product status field.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductDraft    ProductStatus = "draft"
	ProductArchived ProductStatus = "archived"
)

// Product is the subset of a Shopify product the pacer cares about.
type Product struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	ProductType string        `json:"product_type"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	PublishedAt *time.Time    `json:"published_at"`
}

// Category returns the normalized category for this product.
func (p *Product) Category() Category {
	return NormalizeCategory(p.ProductType)
}

// Listed reports whether the product counts as live inventory:
// status is active or it has been published.
func (p *Product) Listed() bool {
	return p.Status == ProductActive || p.PublishedAt != nil
}
