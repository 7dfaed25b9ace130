package trading

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/forkmarket/market-data/internal/cache"
	"github.com/forkmarket/market-data/internal/exchange"
	"github.com/forkmarket/market-data/internal/fees"
	"github.com/forkmarket/market-data/internal/model"
)

// Repository is the store surface the pipeline needs.
type Repository interface {
	GetFeeSettings(ctx context.Context) (*model.FeeSettings, error)
	GetReferralForUser(ctx context.Context, userID int64) (*model.AffiliateReferral, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	InsertOrder(ctx context.Context, o *model.Order) (int64, error)
}

// Submitter is the exchange surface the pipeline needs.
type Submitter interface {
	SubmitOrder(ctx context.Context, order *exchange.OrderRequest) (*exchange.OrderResult, error)
}

// Config holds pipeline settings.
type Config struct {
	// ReferrerAddress is the platform wallet stamped on every order.
	ReferrerAddress string

	// ConditionExpiry is how far in the future condition_expires_at is
	// set on submitted orders.
	ConditionExpiry time.Duration
}

// Receipt is the successful outcome of a submission.
type Receipt struct {
	OrderID         int64
	ExchangeOrderID string
	Split           fees.Split
}

const feeSettingsKey = "fee_settings"

// Pipeline validates, prices, submits and records trade orders.
type Pipeline struct {
	cfg      Config
	repo     Repository
	exchange Submitter
	settings *cache.Cache[string, model.FeeSettings]
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Pipeline. The settings cache may be nil to disable
// fee-settings caching.
func New(cfg Config, repo Repository, submitter Submitter, settings *cache.Cache[string, model.FeeSettings], logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConditionExpiry <= 0 {
		cfg.ConditionExpiry = 24 * time.Hour
	}
	return &Pipeline{
		cfg:      cfg,
		repo:     repo,
		exchange: submitter,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock injects the clock used for condition expiry. Test hook.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	if now != nil {
		p.now = now
	}
	return p
}

// Submit runs the full pipeline for an authenticated user. Validation
// errors and exchange rejections come back verbatim; ErrPersistFailed
// means the exchange accepted the order but the local write failed.
func (p *Pipeline) Submit(ctx context.Context, user *model.User, in *OrderInput) (*Receipt, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}

	amounts, err := validate(in)
	if err != nil {
		return nil, err
	}

	// Fee settings and the referral lookup are independent reads;
	// resolve them in parallel.
	var (
		settings *model.FeeSettings
		referral *model.AffiliateReferral
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = p.feeSettings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		referral, err = p.repo.GetReferralForUser(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	affiliateUserID, affiliateAddress, err := p.resolveAffiliate(ctx, user, referral)
	if err != nil {
		return nil, err
	}
	hasAffiliate := affiliateUserID != 0 && affiliateAddress != ""

	split := fees.ComputeSplit(settings.TradeFeeBps, settings.AffiliateShareBps, hasAffiliate)

	req := p.buildRequest(user, in, settings, affiliateAddress, hasAffiliate)
	result, err := p.exchange.SubmitOrder(ctx, req)
	if err != nil {
		// Exchange rejections pass through untouched so the client can
		// show the exchange's own reason.
		return nil, err
	}

	order := &model.Order{
		UserID:             user.ID,
		ExchangeOrderID:    result.OrderID,
		ConditionID:        in.ConditionID,
		TokenID:            in.TokenID,
		Side:               in.Side,
		Type:               in.Type,
		MakerAddress:       user.Address,
		MakerAmount:        amounts.MakerAmount,
		Price:              amounts.Price,
		Shares:             amounts.Shares,
		TradeFeeBps:        settings.TradeFeeBps,
		AffiliateShareBps:  settings.AffiliateShareBps,
		AffiliateFeeAmount: split.AffiliateFee,
		ForkFeeAmount:      split.ForkFee,
	}
	if hasAffiliate {
		order.AffiliateUserID = affiliateUserID
	}

	orderID, err := p.repo.InsertOrder(ctx, order)
	if err != nil {
		// The trade already executed on the exchange; this row is the
		// only local evidence and it was lost.
		p.logger.Error("order accepted by exchange but local persist failed",
			"exchange_order_id", result.OrderID,
			"user_id", user.ID,
			"token_id", in.TokenID,
			"error", err,
		)
		return nil, ErrPersistFailed
	}

	p.logger.Info("order submitted",
		"order_id", orderID,
		"exchange_order_id", result.OrderID,
		"user_id", user.ID,
		"side", in.Side,
		"has_affiliate", hasAffiliate,
	)

	return &Receipt{
		OrderID:         orderID,
		ExchangeOrderID: result.OrderID,
		Split:           split,
	}, nil
}

// feeSettings returns the cached fee settings, reading through to the
// store on a miss.
func (p *Pipeline) feeSettings(ctx context.Context) (*model.FeeSettings, error) {
	if p.settings != nil {
		if fs, ok := p.settings.Get(feeSettingsKey); ok {
			return &fs, nil
		}
	}

	fs, err := p.repo.GetFeeSettings(ctx)
	if err != nil {
		return nil, err
	}
	if p.settings != nil {
		p.settings.Set(feeSettingsKey, *fs)
	}
	return fs, nil
}

// resolveAffiliate picks the affiliate for this trade: the explicit
// referral relationship when present, otherwise the user's own
// referred_by link.
func (p *Pipeline) resolveAffiliate(ctx context.Context, user *model.User, referral *model.AffiliateReferral) (int64, string, error) {
	if referral != nil {
		return referral.AffiliateUserID, referral.AffiliateAddress, nil
	}
	if user.ReferredByUserID == 0 {
		return 0, "", nil
	}

	affiliate, err := p.repo.GetUserByID(ctx, user.ReferredByUserID)
	if err != nil {
		return 0, "", err
	}
	if affiliate == nil {
		return 0, "", nil
	}
	return affiliate.ID, affiliate.Address, nil
}

// buildRequest assembles the signed order payload for the exchange.
func (p *Pipeline) buildRequest(user *model.User, in *OrderInput, settings *model.FeeSettings, affiliateAddress string, hasAffiliate bool) *exchange.OrderRequest {
	affiliatePercentage := "0"
	if hasAffiliate {
		// Percent, not bps: 4000 bps -> "40".
		affiliatePercentage = decimal.NewFromInt(settings.AffiliateShareBps).
			Div(decimal.NewFromInt(100)).String()
	}

	req := &exchange.OrderRequest{
		FeeRateBps:          settings.TradeFeeBps,
		TakerAddress:        p.cfg.ReferrerAddress,
		MakerAddress:        user.Address,
		TokenID:             in.TokenID,
		ConditionID:         in.ConditionID,
		Salt:                uuid.NewString(),
		ConditionExpiresAt:  p.now().Add(p.cfg.ConditionExpiry).Unix(),
		Side:                in.Side,
		Type:                in.Type,
		MakerAmount:         in.MakerAmount,
		Price:               in.Price,
		Shares:              in.Shares,
		Referrer:            p.cfg.ReferrerAddress,
		AffiliatePercentage: affiliatePercentage,
	}
	if hasAffiliate {
		req.Affiliate = affiliateAddress
	}
	return req
}
