package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"
)

type (
	CategoryKind string

	Category struct {
		ID   uuid.UUID    `json:"id"`
		Name string       `json:"name"`
		Icon *string      `json:"icon,omitempty"`
		Kind CategoryKind `json:"kind"`
	}

	Wallet struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}

	Tag struct {
		ID    uuid.UUID `json:"id"`
		Key   string    `json:"key"`
		Value string    `json:"value"`
	}

	// TagInput is a validated key/value pair waiting to be attached to a payment.
	TagInput struct {
		Key   TagKey
		Value TagValue
	}

	// Payment is the denormalized read model returned by every payment endpoint.
	Payment struct {
		ID             uuid.UUID     `json:"id"`
		Description    *string       `json:"description,omitempty"`
		AmountInCents  int32         `json:"amountInCents"`
		MerchantName   string        `json:"merchantName"`
		AccountingDate LocalDateTime `json:"accountingDate"`
		Category       string        `json:"category"`
		CategoryID     *uuid.UUID    `json:"categoryId,omitempty"`
		CategoryIcon   *string       `json:"categoryIcon,omitempty"`
		Wallet         *string       `json:"wallet,omitempty"`
		Tags           []Tag         `json:"tags"`
	}

	// PaymentDraft carries raw client input for create and update.
	// Validation happens in the write pipeline, before any I/O.
	PaymentDraft struct {
		Description    *string
		Category       CategoryRef
		AmountInCents  int32
		MerchantName   string
		AccountingDate time.Time
		Wallet         *string
		Tags           []RawTag
	}

	RawTag struct {
		Key   string
		Value string
	}

	// PaymentRecord is a validated and resolved payment ready to persist.
	PaymentRecord struct {
		Description    *Description
		CategoryID     uuid.UUID
		AmountInCents  int32
		MerchantName   MerchantName
		AccountingDate time.Time
		WalletID       *uuid.UUID
	}

	// PaymentFilters shapes the list query. Nil fields contribute nothing.
	PaymentFilters struct {
		DateFrom *time.Time
		DateTo   *time.Time
		Category *CategoryRef
		Wallet   *string
		Search   *string
	}

	// BalanceQuery holds optional, independent date bounds and wallet scope.
	BalanceQuery struct {
		Start    *time.Time
		End      *time.Time
		WalletID *uuid.UUID
	}

	Balance struct {
		TotalInCents    int64 `json:"totalInCents"`
		IncomeInCents   int64 `json:"incomeInCents"`
		ExpensesInCents int64 `json:"expensesInCents"`
	}
)

func ParseCategoryKind(raw string) (CategoryKind, error) {
	switch k := CategoryKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindExpense, KindIncome:
		return k, nil
	case "":
		return KindExpense, nil
	default:
		return "", Invalid("kind", "must be %q or %q", KindExpense, KindIncome)
	}
}

// CategoryRef is either a category id or a free-text name, never both.
type CategoryRef struct {
	ID   uuid.UUID
	Name string
}

// ParseCategoryRef classifies raw as an id when it parses as a UUID and as a name otherwise.
func ParseCategoryRef(raw string) CategoryRef {
	s := strings.TrimSpace(raw)
	if id, err := uuid.Parse(s); err == nil {
		return CategoryRef{ID: id}
	}
	return CategoryRef{Name: s}
}

func (r CategoryRef) IsID() bool { return r.ID != uuid.Nil }

func (r CategoryRef) String() string {
	if r.IsID() {
		return r.ID.String()
	}
	return r.Name
}

// Validate parses every field of the draft, returning the first client error.
func (d PaymentDraft) Validate() (MerchantName, *Description, []TagInput, error) {
	merchant, err := ParseMerchantName(d.MerchantName)
	if err != nil {
		return "", nil, nil, err
	}

	var desc *Description
	if d.Description != nil && strings.TrimSpace(*d.Description) != "" {
		parsed, err := ParseDescription(*d.Description)
		if err != nil {
			return "", nil, nil, err
		}
		desc = &parsed
	}

	if d.AccountingDate.IsZero() {
		return "", nil, nil, Invalid("accountingDate", "is required")
	}

	tags := make([]TagInput, 0, len(d.Tags))
	for _, t := range d.Tags {
		key, err := ParseTagKey(t.Key)
		if err != nil {
			return "", nil, nil, err
		}
		value, err := ParseTagValue(t.Value)
		if err != nil {
			return "", nil, nil, err
		}
		tags = append(tags, TagInput{Key: key, Value: value})
	}

	return merchant, desc, tags, nil
}
