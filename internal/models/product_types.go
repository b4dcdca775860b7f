package models

// Product is the API view of a row in the 'products' table.
// Pointers (*float64, *string) are used for the optional columns so that
// rows without pricing data serialize without the keys at all, instead of
// emitting nulls.
//
// The pricing and buy-link columns may be missing from the schema entirely
// on older catalog builds; the catalog store only populates what exists.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`

	// ImageURL is derived: the stored image filename prefixed with the
	// public catalog-images mount. It is never read from the database as-is.
	ImageURL string `json:"image_url"`

	Price         *float64 `json:"price,omitempty"`
	OriginalPrice *float64 `json:"original_price,omitempty"`

	// Discount is the floor of the percentage saved against OriginalPrice.
	// Only computed when both prices are present and OriginalPrice is
	// non-zero.
	Discount *int `json:"discount,omitempty"`

	BuyURL *string `json:"buy_url,omitempty"`
}
