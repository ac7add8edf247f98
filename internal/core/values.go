package core

import (
	"strings"

	"github.com/rivo/uniseg"
)

const (
	MaxNameGraphemes    = 256
	MaxIconGraphemes    = 64
	MaxDescriptionBytes = 255
)

const (
	nameForbidden = `/()"<>\{}`
	iconForbidden = "<>{}\x00"
)

type (
	// Description is a non-empty payment note of at most 255 bytes.
	Description string

	MerchantName string
	CategoryName string
	CategoryIcon string
	WalletName   string

	TagKey   string
	TagValue string
)

// ParseDescription rejects empty or oversized input. Callers map blank input
// to "no description" before calling it.
func ParseDescription(raw string) (Description, error) {
	if raw == "" {
		return "", Invalid("description", "must not be empty")
	}
	if len(raw) > MaxDescriptionBytes {
		return "", Invalid("description", "must be at most %d bytes", MaxDescriptionBytes)
	}
	return Description(raw), nil
}

func ParseMerchantName(raw string) (MerchantName, error) {
	s, err := parseName("merchantName", raw)
	return MerchantName(s), err
}

func ParseCategoryName(raw string) (CategoryName, error) {
	s, err := parseName("category", raw)
	return CategoryName(s), err
}

func ParseWalletName(raw string) (WalletName, error) {
	s, err := parseName("wallet", raw)
	return WalletName(s), err
}

func ParseCategoryIcon(raw string) (CategoryIcon, error) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return "", Invalid("icon", "must not be empty")
	case uniseg.GraphemeClusterCount(s) > MaxIconGraphemes:
		return "", Invalid("icon", "must be at most %d characters", MaxIconGraphemes)
	case strings.ContainsAny(s, iconForbidden):
		return "", Invalid("icon", "contains forbidden characters")
	}
	return CategoryIcon(s), nil
}

func ParseTagKey(raw string) (TagKey, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", Invalid("tags.key", "must not be empty")
	}
	return TagKey(s), nil
}

func ParseTagValue(raw string) (TagValue, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", Invalid("tags.value", "must not be empty")
	}
	return TagValue(s), nil
}

// parseName applies the rules shared by category, merchant and wallet names.
func parseName(field, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return "", Invalid(field, "must not be empty")
	case uniseg.GraphemeClusterCount(s) > MaxNameGraphemes:
		return "", Invalid(field, "must be at most %d characters", MaxNameGraphemes)
	case strings.ContainsAny(s, nameForbidden):
		return "", Invalid(field, "contains forbidden characters %s", nameForbidden)
	}
	return s, nil
}
