// Package provider defines the abstraction over upstream fund data sources.
// Concrete implementations live under internal/providers; the resolver walks
// them in configured priority order and falls through on failure.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/jefftan83/ai-find-fund/pkg/models"
)

// ErrUnsupported is returned by a provider for operations it does not
// implement. The resolver treats it like any other failure and moves on to
// the next provider in the chain.
var ErrUnsupported = errors.New("operation not supported by this provider")

// FundProvider is the interface every upstream fund data source implements.
// A provider may support only a subset of operations; unsupported ones return
// ErrUnsupported. An empty result with a nil error is also treated as a miss
// by callers.
type FundProvider interface {
	// Name identifies the provider in config and logs.
	Name() string

	// List returns the open-fund universe with trailing returns, used to
	// build screening candidates.
	List(ctx context.Context) ([]models.Fund, error)

	// Basic returns profile and performance fields for one fund.
	Basic(ctx context.Context, code string) (*models.Fund, error)

	// LatestNAV returns the most recent published valuation for a fund.
	LatestNAV(ctx context.Context, code string) (*models.NAVPoint, error)

	// DailyNAV returns the latest published valuation for every fund the
	// source covers, keyed by code. The bulk counterpart of LatestNAV;
	// callers persist the whole batch.
	DailyNAV(ctx context.Context) (map[string]models.NAVPoint, error)

	// NAVHistory returns up to days of the fund's valuation series, oldest
	// first.
	NAVHistory(ctx context.Context, code string, days int) ([]models.NAVPoint, error)

	// Holdings returns the fund's most recently reported constituents.
	Holdings(ctx context.Context, code string) ([]models.Holding, error)

	// Rating returns the fund's star rating snapshot.
	Rating(ctx context.Context, code string) (*models.Rating, error)

	// Ratings returns the rating table for every rated fund, keyed by
	// code. Callers persist the whole batch.
	Ratings(ctx context.Context) (map[string]models.Rating, error)

	// Ping verifies connectivity to the upstream source.
	Ping(ctx context.Context) error
}

// Unsupported is an embeddable default that answers ErrUnsupported for every
// operation. Concrete providers embed it and override what they actually
// serve.
type Unsupported struct{}

func (Unsupported) List(context.Context) ([]models.Fund, error) {
	return nil, ErrUnsupported
}

func (Unsupported) Basic(context.Context, string) (*models.Fund, error) {
	return nil, ErrUnsupported
}

func (Unsupported) LatestNAV(context.Context, string) (*models.NAVPoint, error) {
	return nil, ErrUnsupported
}

func (Unsupported) DailyNAV(context.Context) (map[string]models.NAVPoint, error) {
	return nil, ErrUnsupported
}

func (Unsupported) NAVHistory(context.Context, string, int) ([]models.NAVPoint, error) {
	return nil, ErrUnsupported
}

func (Unsupported) Holdings(context.Context, string) ([]models.Holding, error) {
	return nil, ErrUnsupported
}

func (Unsupported) Rating(context.Context, string) (*models.Rating, error) {
	return nil, ErrUnsupported
}

func (Unsupported) Ratings(context.Context) (map[string]models.Rating, error) {
	return nil, ErrUnsupported
}

// ValidateCode checks that a fund code is the expected six-digit form before
// it is interpolated into an upstream URL.
func ValidateCode(code string) error {
	if len(code) != 6 {
		return fmt.Errorf("invalid fund code %q: want 6 digits", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid fund code %q: want 6 digits", code)
		}
	}
	return nil
}
