package checkout

import (
	"encoding/json"

	"github.com/google/uuid"

	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

// Provider metadata keys. Both Stripe session metadata and the Square
// payment note reference the same snapshot shape.
const (
	MetadataKeyCart           = "cart"
	MetadataKeyShipping       = "shipping"
	MetadataKeyDeliveryOption = "delivery_option_id"
)

// SnapshotLine is one cart line frozen into provider metadata at session
// time. Unit prices here are informational; materialization re-reads the
// catalog.
type SnapshotLine struct {
	ProductID      uuid.UUID  `json:"product_id"`
	SizeID         *uuid.UUID `json:"size_id,omitempty"`
	Name           string     `json:"name"`
	SizeLabel      string     `json:"size_label,omitempty"`
	Qty            int        `json:"qty"`
	UnitPriceCents int        `json:"unit_price_cents"`
}

// CartSnapshot is the full frozen checkout intent.
type CartSnapshot struct {
	Lines            []SnapshotLine `json:"lines"`
	Shipping         ShippingForm   `json:"shipping"`
	DeliveryOptionID uuid.UUID      `json:"delivery_option_id"`
}

// BuildMetadata serializes the snapshot into flat provider metadata.
func BuildMetadata(snapshot CartSnapshot) (map[string]string, error) {
	cartJSON, err := json.Marshal(snapshot.Lines)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cart snapshot")
	}
	shippingJSON, err := json.Marshal(snapshot.Shipping)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal shipping snapshot")
	}
	return map[string]string{
		MetadataKeyCart:           string(cartJSON),
		MetadataKeyShipping:       string(shippingJSON),
		MetadataKeyDeliveryOption: snapshot.DeliveryOptionID.String(),
	}, nil
}

// ParseMetadata restores the snapshot from provider metadata.
func ParseMetadata(metadata map[string]string) (*CartSnapshot, error) {
	snapshot := &CartSnapshot{}
	cartJSON, ok := metadata[MetadataKeyCart]
	if !ok || cartJSON == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "metadata missing cart snapshot")
	}
	if err := json.Unmarshal([]byte(cartJSON), &snapshot.Lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cart snapshot")
	}
	if len(snapshot.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart snapshot has no lines")
	}
	if shippingJSON, ok := metadata[MetadataKeyShipping]; ok && shippingJSON != "" {
		if err := json.Unmarshal([]byte(shippingJSON), &snapshot.Shipping); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode shipping snapshot")
		}
	}
	if raw, ok := metadata[MetadataKeyDeliveryOption]; ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode delivery option id")
		}
		snapshot.DeliveryOptionID = id
	}
	return snapshot, nil
}
