package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/pricing"
	"github.com/your-org/storefront-api/internal/pkg/apperror"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type stubRepo struct {
	byCode  map[string]*PromoCode
	created []*PromoCode
	saved   []*PromoCode
	listErr error
}

func newStubRepo(promos ...*PromoCode) *stubRepo {
	r := &stubRepo{byCode: map[string]*PromoCode{}}
	for _, p := range promos {
		r.byCode[p.Code] = p
	}
	return r
}

func (r *stubRepo) FindByCode(_ context.Context, code string) (*PromoCode, error) {
	if p, ok := r.byCode[NormalizeCode(code)]; ok {
		c := *p
		return &c, nil
	}
	return nil, apperror.New(apperror.KindPromoNotFound, "not found")
}

func (r *stubRepo) FindByID(_ context.Context, id uint) (*PromoCode, error) {
	for _, p := range r.byCode {
		if p.ID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, apperror.New(apperror.KindPromoNotFound, "not found")
}

func (r *stubRepo) Create(_ context.Context, p *PromoCode) error {
	p.ID = uint(len(r.byCode) + 1)
	r.byCode[p.Code] = p
	r.created = append(r.created, p)
	return nil
}

func (r *stubRepo) Update(ctx context.Context, id uint, apply func(p *PromoCode) error) (*PromoCode, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(p); err != nil {
		return nil, err
	}
	stored := *p
	r.byCode[p.Code] = &stored
	r.saved = append(r.saved, p)
	return p, nil
}

func (r *stubRepo) List(_ context.Context, offset, limit int) ([]PromoCode, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var out []PromoCode
	for _, p := range r.byCode {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func activePromo() *PromoCode {
	return &PromoCode{
		ID:            1,
		Code:          "SAVE10",
		DiscountType:  pricing.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
	}
}

func TestValidate_Eligible(t *testing.T) {
	p := activePromo()
	p.MinimumOrderAmount = decimal.NewNullDecimal(decimal.NewFromInt(50))
	p.StartsAt = timePtr(fixedNow.Add(-time.Hour))
	p.ExpiresAt = timePtr(fixedNow.Add(time.Hour))
	p.UsageLimit = intPtr(5)
	p.UsageCount = 4

	assert.NoError(t, p.Validate(decimal.NewFromInt(50), fixedNow))
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *PromoCode)
		want   error
	}{
		{"inactive", func(p *PromoCode) { p.IsActive = false }, apperror.ErrPromoIneligible},
		{"not started", func(p *PromoCode) { p.StartsAt = timePtr(fixedNow.Add(time.Minute)) }, apperror.ErrPromoIneligible},
		{"expired", func(p *PromoCode) { p.ExpiresAt = timePtr(fixedNow.Add(-time.Minute)) }, apperror.ErrPromoExpired},
		{"usage exhausted", func(p *PromoCode) { p.UsageLimit = intPtr(3); p.UsageCount = 3 }, apperror.ErrPromoIneligible},
		{"below minimum", func(p *PromoCode) {
			p.MinimumOrderAmount = decimal.NewNullDecimal(decimal.NewFromInt(100))
		}, apperror.ErrPromoIneligible},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := activePromo()
			tc.mutate(p)
			err := p.Validate(decimal.RequireFromString("99.99"), fixedNow)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			// every rejection is an ineligible promo
			assert.True(t, errors.Is(err, apperror.ErrPromoIneligible))
		})
	}
}

func TestValidate_DoesNotConsumeUsage(t *testing.T) {
	p := activePromo()
	p.UsageLimit = intPtr(1)

	require.NoError(t, p.Validate(decimal.NewFromInt(10), fixedNow))
	require.NoError(t, p.Validate(decimal.NewFromInt(10), fixedNow))
	assert.Equal(t, 0, p.UsageCount)
}

func TestExhaustedPromoLeavesTotalsUnchanged(t *testing.T) {
	p := activePromo()
	p.UsageLimit = intPtr(2)
	p.UsageCount = 2
	lines := []pricing.Line{{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(100)}}
	before, err := pricing.Calculate(pricing.Input{Lines: lines})
	require.NoError(t, err)

	svc := NewService(newStubRepo(p), func() time.Time { return fixedNow })
	_, err = svc.Lookup(context.Background(), "save10", before.Subtotal)
	require.True(t, errors.Is(err, apperror.ErrPromoIneligible))

	after, err := pricing.Calculate(pricing.Input{Lines: lines})
	require.NoError(t, err)
	assert.True(t, before.TotalAmount.Equal(after.TotalAmount))
}

func TestDiscount_CarriesCap(t *testing.T) {
	p := activePromo()
	p.MaximumDiscountAmount = decimal.NewNullDecimal(decimal.NewFromInt(15))

	disc := p.Discount()
	require.NotNil(t, disc.MaxAmount)
	assert.True(t, disc.MaxAmount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, pricing.DiscountPercentage, disc.Type)
}

func TestLookup_UnknownCodeIsIneligible(t *testing.T) {
	svc := NewService(newStubRepo(), func() time.Time { return fixedNow })

	_, err := svc.Lookup(context.Background(), "NOPE", decimal.NewFromInt(10))
	assert.True(t, errors.Is(err, apperror.ErrPromoIneligible))
}

func TestCreate_NormalizesAndDefaultsActive(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)

	p, err := svc.Create(context.Background(), &CreatePromoRequest{
		Code:          " spring-25 ",
		DiscountType:  pricing.DiscountFixed,
		DiscountValue: decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	assert.Equal(t, "SPRING-25", p.Code)
	assert.True(t, p.IsActive)
	assert.Len(t, repo.created, 1)
}

func TestCreate_Rejections(t *testing.T) {
	svc := NewService(newStubRepo(activePromo()), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreatePromoRequest{Code: "SAVE10", DiscountType: pricing.DiscountFixed, DiscountValue: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	_, err = svc.Create(ctx, &CreatePromoRequest{Code: "X", DiscountType: pricing.DiscountFixed, DiscountValue: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.Create(ctx, &CreatePromoRequest{Code: "HALFPLUS", DiscountType: pricing.DiscountPercentage, DiscountValue: decimal.NewFromInt(150)})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.Create(ctx, &CreatePromoRequest{
		Code: "BACKWARDS", DiscountType: pricing.DiscountFixed, DiscountValue: decimal.NewFromInt(1),
		StartsAt: timePtr(fixedNow), ExpiresAt: timePtr(fixedNow.Add(-time.Hour)),
	})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	// free shipping promos may carry a zero value
	_, err = svc.Create(ctx, &CreatePromoRequest{Code: "FREESHIP", DiscountType: pricing.DiscountShipping})
	assert.NoError(t, err)
}

func TestUpdate_RejectsLimitBelowUsage(t *testing.T) {
	p := activePromo()
	p.UsageCount = 5
	repo := newStubRepo(p)
	svc := NewService(repo, nil)

	_, err := svc.Update(context.Background(), p.ID, &UpdatePromoRequest{UsageLimit: intPtr(4)})
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Empty(t, repo.saved)

	inactive := false
	updated, err := svc.Update(context.Background(), p.ID, &UpdatePromoRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.UsageLimit)
	assert.Equal(t, 5, updated.UsageCount)
}

func TestUpdate_ChecksLimitAgainstLatestUsage(t *testing.T) {
	p := activePromo()
	p.UsageCount = 2
	repo := newStubRepo(p)
	svc := NewService(repo, nil)
	ctx := context.Background()

	// a checkout lands after the admin loaded the promo
	before, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	p.UsageCount = 3

	_, err = svc.Update(ctx, before.ID, &UpdatePromoRequest{UsageLimit: intPtr(2)})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	updated, err := svc.Update(ctx, before.ID, &UpdatePromoRequest{UsageLimit: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.UsageCount)
	assert.Equal(t, 3, repo.byCode["SAVE10"].UsageCount)
}

func TestList_PropagatesErrors(t *testing.T) {
	repo := newStubRepo()
	repo.listErr = errors.New("db down")
	svc := NewService(repo, nil)

	_, err := svc.List(context.Background(), 1, 20)
	assert.Error(t, err)
}
