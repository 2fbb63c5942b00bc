package flow

import (
	"encoding/json"
	"fmt"

	"github.com/zappybot/zappy/internal/models"
)

// Per-flow data structs. Handlers work with these and round-trip them through
// models.FlowData at the store boundary, so a step update merges the whole
// struct in one patch.

// orderData is the order flow's scratch space.
type orderData struct {
	Cart            []models.CartItem `json:"cart,omitempty"`
	Candidates      []candidateItem   `json:"candidates,omitempty"`
	DeliveryAddress string            `json:"deliveryAddress,omitempty"`
	OrderReference  string            `json:"orderReference,omitempty"`
}

// candidateItem is a matched product offered to the user but not yet added
// to the cart.
type candidateItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
}

// trackingData is the tracking flow's scratch space.
type trackingData struct {
	OrderNumber string `json:"orderNumber,omitempty"`
	EntryMethod string `json:"entryMethod,omitempty"`
}

// encodeData converts a typed flow data struct into the context map form.
func encodeData(v interface{}) (models.FlowData, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow data: %w", err)
	}
	var data models.FlowData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to encode flow data: %w", err)
	}
	return data, nil
}

// decodeData fills a typed flow data struct from the context map form.
// Missing or extra keys are tolerated.
func decodeData(data models.FlowData, v interface{}) error {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to decode flow data: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode flow data: %w", err)
	}
	return nil
}
