package domain

import (
	"strings"
	"time"
)

// WishlistEntry is one product (optionally one variant of it) saved by a
// user. At most one entry exists per (UserID, ProductID, VariantID).
type WishlistEntry struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	ProductID     string    `json:"product_id"`
	VariantID     string    `json:"variant_id"`
	ProductTitle  *string   `json:"product_title"`
	ProductHandle *string   `json:"product_handle"`
	ProductImage  *string   `json:"product_image"`
	VariantTitle  *string   `json:"variant_title"`
	VariantImage  *string   `json:"variant_image"`
	CreatedAt     time.Time `json:"created_at"`
}

// Metadata is the display information stored alongside an entry. A nil
// field on a repeat add keeps the stored value, unless the field is listed
// in Clear, in which case the stored value is reset to null.
type Metadata struct {
	ProductTitle  *string `json:"product_title,omitempty" validate:"omitempty,max=512"`
	ProductHandle *string `json:"product_handle,omitempty" validate:"omitempty,max=255"`
	ProductImage  *string `json:"product_image,omitempty" validate:"omitempty,max=2048"`
	VariantTitle  *string `json:"variant_title,omitempty" validate:"omitempty,max=512"`
	VariantImage  *string `json:"variant_image,omitempty" validate:"omitempty,max=2048"`

	Clear MetadataFields `json:"-"`
}

// MetadataFields is a set of metadata fields.
type MetadataFields uint8

const (
	FieldProductTitle MetadataFields = 1 << iota
	FieldProductHandle
	FieldProductImage
	FieldVariantTitle
	FieldVariantImage
)

// Has reports whether every field in f is in the set.
func (s MetadataFields) Has(f MetadataFields) bool {
	return s&f == f
}

// Without returns the set minus the fields that m actually carries a value
// for. A field cannot be both set and cleared.
func (s MetadataFields) Without(m Metadata) MetadataFields {
	for f, v := range map[MetadataFields]*string{
		FieldProductTitle:  m.ProductTitle,
		FieldProductHandle: m.ProductHandle,
		FieldProductImage:  m.ProductImage,
		FieldVariantTitle:  m.VariantTitle,
		FieldVariantImage:  m.VariantImage,
	} {
		if v != nil {
			s &^= f
		}
	}
	return s
}

// Key identifies an entry. A nil VariantID means "no variant given": for
// lookups and adds it is the empty variant, for removal it matches every
// variant of the product.
type Key struct {
	UserID    string  `json:"user_id" validate:"required,max=255,nocontrol"`
	ProductID string  `json:"product_id" validate:"required,max=255,nocontrol"`
	VariantID *string `json:"variant_id,omitempty" validate:"omitempty,max=255,nocontrol"`
}

// Normalize trims surrounding whitespace from every identifier.
func (k Key) Normalize() Key {
	k.UserID = strings.TrimSpace(k.UserID)
	k.ProductID = strings.TrimSpace(k.ProductID)
	if k.VariantID != nil {
		v := strings.TrimSpace(*k.VariantID)
		k.VariantID = &v
	}
	return k
}

// Variant returns the stored form of the variant: "" when none was given.
func (k Key) Variant() string {
	if k.VariantID == nil {
		return ""
	}
	return *k.VariantID
}

// NewEntry builds the entry an add of key with meta would store.
func NewEntry(key Key, meta Metadata) *WishlistEntry {
	return &WishlistEntry{
		UserID:        key.UserID,
		ProductID:     key.ProductID,
		VariantID:     key.Variant(),
		ProductTitle:  meta.ProductTitle,
		ProductHandle: meta.ProductHandle,
		ProductImage:  meta.ProductImage,
		VariantTitle:  meta.VariantTitle,
		VariantImage:  meta.VariantImage,
	}
}

// BrowseFilter narrows the admin listing. Empty fields match everything.
type BrowseFilter struct {
	UserID    string `json:"user_id" validate:"max=255"`
	ProductID string `json:"product_id" validate:"max=255"`
}
