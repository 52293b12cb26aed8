package redisx

import "time"

const (
	// Cache pedido yang sudah final: order:{order_id} -> JSON order lengkap
	KeyOrder = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Set produk yang stoknya menipis: lowstock:{establishment_id}
	KeyLowStock = "lowstock:%s"

	// Token akses yang diterbitkan layanan akun: auth:customer:{token} -> customer_id
	KeyCustomerToken = "auth:customer:%s"

	// auth:seller:{token} -> seller_id
	KeySellerToken = "auth:seller:%s"
)

var (
	TTLOrderCache = 10 * time.Minute
	TTLDedup      = 48 * time.Hour
)
