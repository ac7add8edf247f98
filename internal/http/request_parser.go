// Package http provides the JSON API server and its handlers.
//
// This file turns request bodies and query strings into core inputs. Every
// problem is reported as a *core.ValidationError so it maps to 400.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxBodyBytes    = 1 << 20
	defaultPageSize = 10
	maxPageSize     = 1000
)

type tagRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// paymentRequest is the create and update body. categoryId accepts an id or a
// name; category is accepted as an alias.
type paymentRequest struct {
	Description    *string      `json:"description"`
	CategoryID     string       `json:"categoryId"`
	Category       string       `json:"category"`
	AmountInCents  *int32       `json:"amountInCents"`
	MerchantName   string       `json:"merchantName"`
	AccountingDate string       `json:"accountingDate"`
	Wallet         *string      `json:"wallet"`
	Tags           []tagRequest `json:"tags"`
}

type categoryRequest struct {
	Name string  `json:"name"`
	Icon *string `json:"icon"`
	Kind string  `json:"kind"`
}

type walletRequest struct {
	Name string `json:"name"`
}

// decodeJSON reads one JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return core.Invalid("body", "must not be empty")
		case errors.As(err, &maxErr):
			return core.Invalid("body", "must be at most %d bytes", maxErr.Limit)
		case errors.As(err, &typeErr):
			return core.Invalid(typeErr.Field, "has the wrong type or is out of range")
		default:
			return core.Invalid("body", "malformed JSON")
		}
	}
	if dec.More() {
		return core.Invalid("body", "must contain a single JSON object")
	}
	return nil
}

// ParsePaymentDraft decodes and shapes a payment body. Field rules are applied
// later by the write pipeline.
func ParsePaymentDraft(w http.ResponseWriter, r *http.Request) (core.PaymentDraft, error) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.PaymentDraft{}, err
	}

	ref := strings.TrimSpace(req.CategoryID)
	if ref == "" {
		ref = strings.TrimSpace(req.Category)
	}
	if ref == "" {
		return core.PaymentDraft{}, core.Invalid("categoryId", "is required")
	}
	if req.AmountInCents == nil {
		return core.PaymentDraft{}, core.Invalid("amountInCents", "is required")
	}
	if strings.TrimSpace(req.AccountingDate) == "" {
		return core.PaymentDraft{}, core.Invalid("accountingDate", "is required")
	}
	date, err := core.ParseLocalDateTime(req.AccountingDate)
	if err != nil {
		return core.PaymentDraft{}, core.Invalid("accountingDate", "must be an ISO-8601 date-time")
	}

	tags := make([]core.RawTag, 0, len(req.Tags))
	for _, t := range req.Tags {
		tags = append(tags, core.RawTag{Key: t.Key, Value: t.Value})
	}

	return core.PaymentDraft{
		Description:    req.Description,
		Category:       core.ParseCategoryRef(ref),
		AmountInCents:  *req.AmountInCents,
		MerchantName:   sanitizeInput(req.MerchantName),
		AccountingDate: date.Time,
		Wallet:         req.Wallet,
		Tags:           tags,
	}, nil
}

// PageParams holds the resolved pagination of a list request.
type PageParams struct {
	Page int64
	Size int64
}

// ParsePageParams reads page (default 0) and size (default 10, capped at 1000).
func ParsePageParams(q url.Values) (PageParams, error) {
	page, err := parseNonNegative(q, "page", 0)
	if err != nil {
		return PageParams{}, err
	}
	size, err := parseNonNegative(q, "size", defaultPageSize)
	if err != nil {
		return PageParams{}, err
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if size > 0 && page > math.MaxInt64/size {
		return PageParams{}, core.Invalid("page", "is too large for page size %d", size)
	}
	return PageParams{Page: page, Size: size}, nil
}

func parseNonNegative(q url.Values, key string, def int64) (int64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, core.Invalid(key, "must be a non-negative integer")
	}
	return n, nil
}

// ParsePaymentFilters reads the optional list filters. Blank values are ignored.
func ParsePaymentFilters(q url.Values) (core.PaymentFilters, error) {
	var f core.PaymentFilters
	var err error

	if f.DateFrom, err = parseDayParam(q, "dateFrom"); err != nil {
		return f, err
	}
	if f.DateTo, err = parseDayParam(q, "dateTo"); err != nil {
		return f, err
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		ref := core.ParseCategoryRef(v)
		f.Category = &ref
	}
	f.Wallet = optionalParam(q, "wallet")
	f.Search = optionalParam(q, "search")
	return f, nil
}

// ParseBalanceRequest reads the balance bounds and wallet scope, accepting
// the alias spellings older clients send.
func ParseBalanceRequest(q url.Values) (services.BalanceRequest, error) {
	var req services.BalanceRequest
	var err error

	if req.Start, err = parseDayParam(q, "dateFrom", "startDate", "start_date"); err != nil {
		return req, err
	}
	if req.End, err = parseDayParam(q, "dateTo", "endDate", "end_date"); err != nil {
		return req, err
	}
	req.Wallet = optionalParam(q, "wallet", "wallet_name")
	return req, nil
}

// firstParam returns the first non-blank value among keys and the key it came from.
func firstParam(q url.Values, keys ...string) (string, string) {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v, k
		}
	}
	return "", ""
}

func optionalParam(q url.Values, keys ...string) *string {
	v, _ := firstParam(q, keys...)
	if v == "" {
		return nil
	}
	return &v
}

func parseDayParam(q url.Values, keys ...string) (*time.Time, error) {
	v, key := firstParam(q, keys...)
	if v == "" {
		return nil, nil
	}
	day, err := core.ParseDay(v)
	if err != nil {
		return nil, core.Invalid(key, "must be a date (YYYY-MM-DD) or date-time")
	}
	return &day, nil
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.Invalid(name, "%q is not a valid id", raw)
	}
	return id, nil
}
