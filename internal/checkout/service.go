package checkout

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/square/square-go-sdk"
	stripesdk "github.com/stripe/stripe-go/v84"

	"github.com/google/uuid"

	"github.com/ridersroast/motocafe-backend/internal/catalog"
	"github.com/ridersroast/motocafe-backend/pkg/config"
	"github.com/ridersroast/motocafe-backend/pkg/db/models"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
	"github.com/ridersroast/motocafe-backend/pkg/logger"
	"github.com/ridersroast/motocafe-backend/pkg/square"
	"github.com/ridersroast/motocafe-backend/pkg/stripe"
)

type catalogReader interface {
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	FindDeliveryOptionByID(ctx context.Context, id uuid.UUID) (*models.DeliveryOption, error)
}

// StripeSessions is the Stripe surface the session builder needs.
type StripeSessions interface {
	CreateSession(ctx context.Context, params stripe.SessionParams) (*stripesdk.CheckoutSession, error)
}

// SquareLinks is the Square surface the session builder needs.
type SquareLinks interface {
	CreatePaymentLink(ctx context.Context, params square.PaymentLinkCreateParams) (*sq.PaymentLink, error)
	NewIdempotencyKey(prefix string) string
}

// SessionResult is the opaque redirect handle returned to the storefront.
// Nothing is persisted locally until the provider webhook confirms payment.
type SessionResult struct {
	Provider    enums.PaymentProvider `json:"provider"`
	SessionID   string                `json:"session_id"`
	RedirectURL string                `json:"redirect_url"`
	TotalCents  int                   `json:"total_cents"`
}

// Service builds hosted checkout sessions from a client cart.
type Service interface {
	CreateSession(ctx context.Context, input CheckoutInput) (*SessionResult, error)
}

type service struct {
	catalog catalogReader
	stripe  StripeSessions
	square  SquareLinks
	cfg     config.CheckoutConfig
	logger  *logger.Logger
}

// NewService builds the checkout service. Provider clients may be nil when
// the corresponding credentials are absent; selecting that provider then
// fails at request time.
func NewService(catalogRepo catalogReader, stripeClient StripeSessions, squareClient SquareLinks, cfg config.CheckoutConfig, log *logger.Logger) (Service, error) {
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog: catalogRepo,
		stripe:  stripeClient,
		square:  squareClient,
		cfg:     cfg,
		logger:  log,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, input CheckoutInput) (*SessionResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	lines, err := s.resolveLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	option, err := s.catalog.FindDeliveryOptionByID(ctx, input.DeliveryOptionID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery option not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery option")
	}
	if !option.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery option is not available")
	}

	snapshot := CartSnapshot{
		Lines:            snapshotLines(lines),
		Shipping:         input.Shipping,
		DeliveryOptionID: option.ID,
	}
	totalCents := subtotalCents(lines) + option.FeeCents

	var result *SessionResult
	switch input.Provider {
	case enums.PaymentProviderStripe:
		result, err = s.createStripeSession(ctx, lines, option, snapshot)
	case enums.PaymentProviderSquare:
		result, err = s.createSquareLink(ctx, lines, option, snapshot)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	if err != nil {
		return nil, err
	}
	result.TotalCents = totalCents

	ctx = s.logger.WithFields(ctx, map[string]any{
		"provider":    string(result.Provider),
		"session_id":  result.SessionID,
		"total_cents": totalCents,
		"line_count":  len(lines),
	})
	s.logger.Info(ctx, "checkout session created")
	return result, nil
}

// resolveLines validates each cart line against the live catalog and takes
// unit prices from it. Client-supplied prices never reach the provider.
func (s *service) resolveLines(ctx context.Context, cart []CartLine) ([]ResolvedLine, error) {
	ids := make([]uuid.UUID, 0, len(cart))
	seen := map[uuid.UUID]struct{}{}
	for _, line := range cart {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	products, err := s.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	resolved := make([]ResolvedLine, 0, len(cart))
	for _, line := range cart {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID))
		}
		if !product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q is not available", product.Name))
		}

		item := ResolvedLine{
			ProductID:      product.ID,
			Name:           product.Name,
			Qty:            line.Qty,
			UnitPriceCents: product.PriceCents,
		}
		if product.HasSizes() {
			if line.SizeID == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q requires a size", product.Name))
			}
			size := findSize(product, *line.SizeID)
			if size == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q has no such size", product.Name))
			}
			item.SizeID = &size.ID
			item.SizeLabel = size.Label
		} else if line.SizeID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q has no sizes", product.Name))
		}
		resolved = append(resolved, item)
	}
	return resolved, nil
}

func (s *service) createStripeSession(ctx context.Context, lines []ResolvedLine, option *models.DeliveryOption, snapshot CartSnapshot) (*SessionResult, error) {
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe is not configured")
	}
	metadata, err := BuildMetadata(snapshot)
	if err != nil {
		return nil, err
	}

	params := stripe.SessionParams{
		Currency:      s.cfg.Currency,
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
		CustomerEmail: snapshot.Shipping.Email,
		Metadata:      metadata,
	}
	for _, line := range lines {
		params.LineItems = append(params.LineItems, stripe.SessionLineItem{
			Name:           displayName(line),
			UnitPriceCents: int64(line.UnitPriceCents),
			Qty:            int64(line.Qty),
		})
	}
	if option.FeeCents > 0 {
		params.LineItems = append(params.LineItems, shippingStripeLine(option))
	}

	session, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SessionResult{
		Provider:    enums.PaymentProviderStripe,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

func (s *service) createSquareLink(ctx context.Context, lines []ResolvedLine, option *models.DeliveryOption, snapshot CartSnapshot) (*SessionResult, error) {
	if s.square == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "square is not configured")
	}
	metadata, err := BuildMetadata(snapshot)
	if err != nil {
		return nil, err
	}

	params := square.PaymentLinkCreateParams{
		RedirectURL:    s.cfg.SuccessURL,
		PaymentNote:    fmt.Sprintf("MotoCafe checkout, %d line(s)", len(lines)),
		ReferenceID:    metadata[MetadataKeyDeliveryOption],
		Metadata:       metadata,
		IdempotencyKey: s.square.NewIdempotencyKey("checkout"),
	}
	for _, line := range lines {
		params.LineItems = append(params.LineItems, square.PaymentLinkLineItem{
			Name:           displayName(line),
			UnitPriceCents: int64(line.UnitPriceCents),
			Qty:            line.Qty,
			Currency:       strings.ToUpper(s.cfg.Currency),
		})
	}
	if option.FeeCents > 0 {
		params.LineItems = append(params.LineItems, square.PaymentLinkLineItem{
			Name:           shippingLineName(option),
			UnitPriceCents: int64(option.FeeCents),
			Qty:            1,
			Currency:       strings.ToUpper(s.cfg.Currency),
		})
	}

	link, err := s.square.CreatePaymentLink(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SessionResult{
		Provider:    enums.PaymentProviderSquare,
		SessionID:   derefString(link.GetID()),
		RedirectURL: derefString(link.GetURL()),
	}, nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func shippingStripeLine(option *models.DeliveryOption) stripe.SessionLineItem {
	return stripe.SessionLineItem{
		Name:           shippingLineName(option),
		UnitPriceCents: int64(option.FeeCents),
		Qty:            1,
	}
}

func shippingLineName(option *models.DeliveryOption) string {
	return "Shipping: " + option.Name
}

func displayName(line ResolvedLine) string {
	if line.SizeLabel == "" {
		return line.Name
	}
	return fmt.Sprintf("%s (%s)", line.Name, line.SizeLabel)
}

func snapshotLines(lines []ResolvedLine) []SnapshotLine {
	out := make([]SnapshotLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, SnapshotLine{
			ProductID:      line.ProductID,
			SizeID:         line.SizeID,
			Name:           line.Name,
			SizeLabel:      line.SizeLabel,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
		})
	}
	return out
}

// isNotFound matches both the gorm sentinel the catalog repository returns
// and a typed NOT_FOUND from any other catalogReader implementation.
func isNotFound(err error) bool {
	if catalog.IsNotFound(err) {
		return true
	}
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeNotFound
}

func findSize(product *models.Product, sizeID uuid.UUID) *models.ProductSize {
	for i := range product.Sizes {
		if product.Sizes[i].ID == sizeID {
			return &product.Sizes[i]
		}
	}
	return nil
}
