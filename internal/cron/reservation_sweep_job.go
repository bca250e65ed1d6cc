package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
)

const sweepMaxRetries = 3

type reservationSweeper interface {
	ReleaseExpiredReservations(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReservationSweepJobParams configure the reservation sweep.
type ReservationSweepJobParams struct {
	Logger   *logger.Logger
	Products reservationSweeper
	// TTL is how long a checkout claim stays valid. Claims older than this
	// belong to abandoned checkouts and are freed.
	TTL time.Duration
}

// NewReservationSweepJob builds the cron job that frees abandoned checkout
// claims so the items become purchasable again.
func NewReservationSweepJob(params ReservationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("reservation ttl must be positive")
	}
	return &reservationSweepJob{
		logg:     params.Logger,
		products: params.Products,
		ttl:      params.TTL,
		now:      time.Now,
	}, nil
}

type reservationSweepJob struct {
	logg     *logger.Logger
	products reservationSweeper
	ttl      time.Duration
	now      func() time.Time
}

func (j *reservationSweepJob) Name() string { return "reservation-sweep" }

func (j *reservationSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)

	backoff := retry.WithMaxRetries(sweepMaxRetries, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		released, err := j.products.ReleaseExpiredReservations(ctx, cutoff)
		if err != nil {
			return retry.RetryableError(err)
		}
		if released > 0 {
			j.logg.Info(j.logg.WithField(ctx, "released", released), "expired reservations freed")
		}
		return nil
	})
}
