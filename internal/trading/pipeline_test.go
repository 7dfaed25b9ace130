package trading

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forkmarket/market-data/internal/cache"
	"github.com/forkmarket/market-data/internal/exchange"
	"github.com/forkmarket/market-data/internal/model"
)

type fakeRepo struct {
	settings     model.FeeSettings
	settingsErr  error
	settingsHits int

	referral    *model.AffiliateReferral
	referralErr error

	users map[int64]*model.User

	inserted  []*model.Order
	insertErr error
	nextID    int64
}

func (r *fakeRepo) GetFeeSettings(ctx context.Context) (*model.FeeSettings, error) {
	r.settingsHits++
	if r.settingsErr != nil {
		return nil, r.settingsErr
	}
	fs := r.settings
	return &fs, nil
}

func (r *fakeRepo) GetReferralForUser(ctx context.Context, userID int64) (*model.AffiliateReferral, error) {
	return r.referral, r.referralErr
}

func (r *fakeRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.users[id], nil
}

func (r *fakeRepo) InsertOrder(ctx context.Context, o *model.Order) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, o)
	r.nextID++
	return r.nextID, nil
}

type fakeExchange struct {
	requests []*exchange.OrderRequest
	result   *exchange.OrderResult
	err      error
}

func (e *fakeExchange) SubmitOrder(ctx context.Context, order *exchange.OrderRequest) (*exchange.OrderResult, error) {
	e.requests = append(e.requests, order)
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func validInput() *OrderInput {
	return &OrderInput{
		ConditionID: "0xcond",
		TokenID:     "token-1",
		Side:        model.SideBuy,
		Type:        model.TypeLimit,
		MakerAmount: "100",
		Price:       "0.55",
		Shares:      "181.81",
	}
}

func newTestPipeline(repo *fakeRepo, ex *fakeExchange) *Pipeline {
	return New(Config{ReferrerAddress: "0xplatform", ConditionExpiry: time.Hour}, repo, ex, nil, nil)
}

func TestSubmitUnauthenticated(t *testing.T) {
	repo := &fakeRepo{}
	ex := &fakeExchange{}
	p := newTestPipeline(repo, ex)

	_, err := p.Submit(context.Background(), nil, validInput())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Submit() error = %v, want ErrUnauthenticated", err)
	}
	if len(ex.requests) != 0 {
		t.Errorf("exchange called %d times, want 0", len(ex.requests))
	}
}

func TestSubmitValidationStopsEarly(t *testing.T) {
	repo := &fakeRepo{settings: model.FeeSettings{TradeFeeBps: 100}}
	ex := &fakeExchange{}
	p := newTestPipeline(repo, ex)

	in := validInput()
	in.TokenID = ""

	_, err := p.Submit(context.Background(), &model.User{ID: 1, Address: "0xuser"}, in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit() error = %v, want *ValidationError", err)
	}
	if verr.Field != "token_id" {
		t.Errorf("Field = %q, want %q", verr.Field, "token_id")
	}
	if len(ex.requests) != 0 {
		t.Errorf("exchange called %d times, want 0", len(ex.requests))
	}
	if repo.settingsHits != 0 {
		t.Errorf("fee settings read %d times before validation, want 0", repo.settingsHits)
	}
}

func TestSubmitWithReferralAffiliate(t *testing.T) {
	repo := &fakeRepo{
		settings: model.FeeSettings{TradeFeeBps: 100, AffiliateShareBps: 4000},
		referral: &model.AffiliateReferral{
			UserID:           7,
			AffiliateUserID:  3,
			AffiliateAddress: "0xaffiliate",
		},
	}
	ex := &fakeExchange{result: &exchange.OrderResult{OrderID: "ex-123", Status: "accepted"}}
	p := newTestPipeline(repo, ex)

	receipt, err := p.Submit(context.Background(), &model.User{ID: 7, Address: "0xuser"}, validInput())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if receipt.ExchangeOrderID != "ex-123" {
		t.Errorf("ExchangeOrderID = %q, want %q", receipt.ExchangeOrderID, "ex-123")
	}
	if got, want := receipt.Split.TotalFee.String(), "0.02"; got != want {
		t.Errorf("TotalFee = %s, want %s", got, want)
	}
	if got, want := receipt.Split.AffiliateFee.String(), "0.008"; got != want {
		t.Errorf("AffiliateFee = %s, want %s", got, want)
	}
	if got, want := receipt.Split.ForkFee.String(), "0.012"; got != want {
		t.Errorf("ForkFee = %s, want %s", got, want)
	}

	if len(ex.requests) != 1 {
		t.Fatalf("exchange called %d times, want 1", len(ex.requests))
	}
	req := ex.requests[0]
	if req.Affiliate != "0xaffiliate" {
		t.Errorf("Affiliate = %q, want %q", req.Affiliate, "0xaffiliate")
	}
	if req.AffiliatePercentage != "40" {
		t.Errorf("AffiliatePercentage = %q, want %q", req.AffiliatePercentage, "40")
	}
	if req.Referrer != "0xplatform" {
		t.Errorf("Referrer = %q, want %q", req.Referrer, "0xplatform")
	}
	if req.FeeRateBps != 100 {
		t.Errorf("FeeRateBps = %d, want 100", req.FeeRateBps)
	}
	if req.Salt == "" {
		t.Error("Salt is empty")
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d orders, want 1", len(repo.inserted))
	}
	order := repo.inserted[0]
	if order.AffiliateUserID != 3 {
		t.Errorf("AffiliateUserID = %d, want 3", order.AffiliateUserID)
	}
	if order.TradeFeeBps != 100 || order.AffiliateShareBps != 4000 {
		t.Errorf("stored bps = (%d, %d), want (100, 4000)", order.TradeFeeBps, order.AffiliateShareBps)
	}
	if !order.AffiliateFeeAmount.Equal(receipt.Split.AffiliateFee) {
		t.Errorf("stored AffiliateFeeAmount = %s, want %s", order.AffiliateFeeAmount, receipt.Split.AffiliateFee)
	}
	if !order.ForkFeeAmount.Equal(receipt.Split.ForkFee) {
		t.Errorf("stored ForkFeeAmount = %s, want %s", order.ForkFeeAmount, receipt.Split.ForkFee)
	}
}

func TestSubmitNoAffiliate(t *testing.T) {
	repo := &fakeRepo{
		settings: model.FeeSettings{TradeFeeBps: 100, AffiliateShareBps: 4000},
	}
	ex := &fakeExchange{result: &exchange.OrderResult{OrderID: "ex-9"}}
	p := newTestPipeline(repo, ex)

	receipt, err := p.Submit(context.Background(), &model.User{ID: 7, Address: "0xuser"}, validInput())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !receipt.Split.AffiliateFee.IsZero() {
		t.Errorf("AffiliateFee = %s, want 0", receipt.Split.AffiliateFee)
	}
	if !receipt.Split.ForkFee.Equal(receipt.Split.TotalFee) {
		t.Errorf("ForkFee = %s, want total %s", receipt.Split.ForkFee, receipt.Split.TotalFee)
	}

	req := ex.requests[0]
	if req.Affiliate != "" {
		t.Errorf("Affiliate = %q, want empty", req.Affiliate)
	}
	if req.AffiliatePercentage != "0" {
		t.Errorf("AffiliatePercentage = %q, want %q", req.AffiliatePercentage, "0")
	}
	if repo.inserted[0].AffiliateUserID != 0 {
		t.Errorf("AffiliateUserID = %d, want 0", repo.inserted[0].AffiliateUserID)
	}
}

func TestSubmitReferredByFallback(t *testing.T) {
	repo := &fakeRepo{
		settings: model.FeeSettings{TradeFeeBps: 200, AffiliateShareBps: 5000},
		users: map[int64]*model.User{
			11: {ID: 11, Address: "0xupline"},
		},
	}
	ex := &fakeExchange{result: &exchange.OrderResult{OrderID: "ex-2"}}
	p := newTestPipeline(repo, ex)

	user := &model.User{ID: 7, Address: "0xuser", ReferredByUserID: 11}
	_, err := p.Submit(context.Background(), user, validInput())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got := ex.requests[0].Affiliate; got != "0xupline" {
		t.Errorf("Affiliate = %q, want %q", got, "0xupline")
	}
	if got := repo.inserted[0].AffiliateUserID; got != 11 {
		t.Errorf("AffiliateUserID = %d, want 11", got)
	}
}

func TestSubmitExchangeErrorPassesThrough(t *testing.T) {
	exchangeErr := &exchange.ExchangeError{StatusCode: 422, Body: []byte(`{"error":"insufficient balance"}`)}
	repo := &fakeRepo{settings: model.FeeSettings{TradeFeeBps: 100}}
	ex := &fakeExchange{err: exchangeErr}
	p := newTestPipeline(repo, ex)

	_, err := p.Submit(context.Background(), &model.User{ID: 1, Address: "0xuser"}, validInput())
	var got *exchange.ExchangeError
	if !errors.As(err, &got) {
		t.Fatalf("Submit() error = %v, want *exchange.ExchangeError", err)
	}
	if string(got.Body) != string(exchangeErr.Body) {
		t.Errorf("Body = %q, want %q", got.Body, exchangeErr.Body)
	}
	if len(ex.requests) != 1 {
		t.Errorf("exchange called %d times, want exactly 1", len(ex.requests))
	}
	if len(repo.inserted) != 0 {
		t.Errorf("inserted %d orders after rejection, want 0", len(repo.inserted))
	}
}

func TestSubmitPersistFailure(t *testing.T) {
	repo := &fakeRepo{
		settings:  model.FeeSettings{TradeFeeBps: 100},
		insertErr: errors.New("connection reset"),
	}
	ex := &fakeExchange{result: &exchange.OrderResult{OrderID: "ex-lost"}}
	p := newTestPipeline(repo, ex)

	_, err := p.Submit(context.Background(), &model.User{ID: 1, Address: "0xuser"}, validInput())
	if !errors.Is(err, ErrPersistFailed) {
		t.Fatalf("Submit() error = %v, want ErrPersistFailed", err)
	}
	// The exchange order went through; only the local record failed.
	if len(ex.requests) != 1 {
		t.Errorf("exchange called %d times, want 1", len(ex.requests))
	}
}

func TestSubmitFeeSettingsCached(t *testing.T) {
	repo := &fakeRepo{settings: model.FeeSettings{TradeFeeBps: 100, AffiliateShareBps: 4000}}
	ex := &fakeExchange{result: &exchange.OrderResult{OrderID: "ex-1"}}

	settings := cache.New[string, model.FeeSettings](4, time.Minute, nil)
	p := New(Config{ReferrerAddress: "0xplatform"}, repo, ex, settings, nil)

	user := &model.User{ID: 1, Address: "0xuser"}
	for i := 0; i < 3; i++ {
		if _, err := p.Submit(context.Background(), user, validInput()); err != nil {
			t.Fatalf("Submit() #%d error = %v", i, err)
		}
	}

	if repo.settingsHits != 1 {
		t.Errorf("fee settings read %d times, want 1 (cached)", repo.settingsHits)
	}
}

func TestSubmitFeeSettingsLookupError(t *testing.T) {
	repo := &fakeRepo{settingsErr: errors.New("db down")}
	ex := &fakeExchange{result: &exchange.OrderResult{OrderID: "ex-1"}}
	p := newTestPipeline(repo, ex)

	_, err := p.Submit(context.Background(), &model.User{ID: 1, Address: "0xuser"}, validInput())
	if err == nil {
		t.Fatal("Submit() error = nil, want error")
	}
	if len(ex.requests) != 0 {
		t.Errorf("exchange called %d times after lookup failure, want 0", len(ex.requests))
	}
}

func TestSubmitConditionExpiry(t *testing.T) {
	repo := &fakeRepo{settings: model.FeeSettings{TradeFeeBps: 100}}
	ex := &fakeExchange{result: &exchange.OrderResult{OrderID: "ex-1"}}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := New(Config{ReferrerAddress: "0xplatform", ConditionExpiry: 2 * time.Hour}, repo, ex, nil, nil).
		WithClock(func() time.Time { return base })

	if _, err := p.Submit(context.Background(), &model.User{ID: 1, Address: "0xuser"}, validInput()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := base.Add(2 * time.Hour).Unix()
	if got := ex.requests[0].ConditionExpiresAt; got != want {
		t.Errorf("ConditionExpiresAt = %d, want %d", got, want)
	}
}
