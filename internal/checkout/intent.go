package checkout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	pkgerrors "github.com/karinvintage/vintagecloset-backend/pkg/errors"
)

// The intent travels as JSON split across numbered Stripe metadata keys.
// Stripe caps metadata values at 500 characters, so the payload is chunked
// with a margin and reassembled on the webhook side.
const (
	intentSchemaVersion = 1

	metadataVersionKey = "order_intent_version"
	metadataPartsKey   = "order_intent_parts"
	metadataPartPrefix = "order_intent_"
	metadataChunkSize  = 450
)

// OrderIntent carries everything settlement needs to reconstruct an order
// from the Stripe event alone. Prices are serialized as fixed-point strings.
type OrderIntent struct {
	SchemaVersion int `json:"schema_version"`

	ProductID    string `json:"product_id"`
	ProductSlug  string `json:"product_slug"`
	ProductTitle string `json:"product_title"`
	ProductSize  string `json:"product_size"`
	ProductImage string `json:"product_image,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Category     string `json:"category,omitempty"`

	OriginalPrice          string `json:"original_price"`
	ProductDiscountPercent int    `json:"product_discount_percent"`
	DiscountCode           string `json:"discount_code,omitempty"`
	DiscountCodeType       string `json:"discount_code_type,omitempty"`
	DiscountCodeValue      string `json:"discount_code_value,omitempty"`
	DiscountCodeAmount     string `json:"discount_code_amount"`
	FinalPrice             string `json:"final_price"`

	DeliveryMethod string `json:"delivery_method"`
	PickupCode     string `json:"pickup_code,omitempty"`

	CustomerName       string `json:"customer_name"`
	CustomerEmail      string `json:"customer_email"`
	ShippingAddress    string `json:"shipping_address"`
	ShippingCity       string `json:"shipping_city"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	ShippingCountry    string `json:"shipping_country"`
}

// EncodeMetadata serializes the intent into Stripe session metadata.
func (i OrderIntent) EncodeMetadata() (map[string]string, error) {
	i.SchemaVersion = intentSchemaVersion
	payload, err := json.Marshal(i)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order intent")
	}

	metadata := map[string]string{
		metadataVersionKey: strconv.Itoa(intentSchemaVersion),
	}
	parts := 0
	for offset := 0; offset < len(payload); {
		end := offset + metadataChunkSize
		if end >= len(payload) {
			end = len(payload)
		} else {
			// Never split a multi-byte rune across chunks; the values
			// round-trip through Stripe as independent strings.
			for end > offset && !utf8.RuneStart(payload[end]) {
				end--
			}
			if end == offset {
				end = offset + metadataChunkSize
			}
		}
		metadata[metadataPartPrefix+strconv.Itoa(parts)] = string(payload[offset:end])
		parts++
		offset = end
	}
	metadata[metadataPartsKey] = strconv.Itoa(parts)
	return metadata, nil
}

// DecodeIntentMetadata reassembles and validates an intent from session
// metadata written by EncodeMetadata.
func DecodeIntentMetadata(metadata map[string]string) (*OrderIntent, error) {
	rawParts, ok := metadata[metadataPartsKey]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata carries no order intent")
	}
	parts, err := strconv.Atoi(rawParts)
	if err != nil || parts <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order intent part count %q", rawParts))
	}

	var payload []byte
	for idx := 0; idx < parts; idx++ {
		chunk, ok := metadata[metadataPartPrefix+strconv.Itoa(idx)]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("order intent part %d missing", idx))
		}
		payload = append(payload, chunk...)
	}

	var intent OrderIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unmarshal order intent")
	}
	if intent.SchemaVersion < 1 || intent.SchemaVersion > intentSchemaVersion {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported order intent schema version %d", intent.SchemaVersion))
	}
	return &intent, nil
}
