package accounts

type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Complement string `json:"complement,omitempty"`
}

type Establishment struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	Name     string `json:"name"`
}
