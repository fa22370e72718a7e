package entity

// Buyer representa un comprador del directorio. A lo sumo uno tiene IsDefault en toda la organización.
type Buyer struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	GSTIN           string `json:"gstin"`
	Address         string `json:"address"` // dirección de facturación
	ShippingAddress string `json:"shipping_address,omitempty"`
	State           string `json:"state"`
	StateCode       string `json:"state_code"`
	PlaceOfSupply   string `json:"place_of_supply"`
	IsDefault       bool   `json:"is_default"`
}
