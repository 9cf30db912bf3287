package booking

import "time"

// Checklist is the vehicle condition record captured at pickup and return.
// Photo references are opaque URLs handed back by object storage; the core
// never touches the bytes.
type Checklist struct {
	Odometer    int64     `json:"odometer"`
	FuelPercent int       `json:"fuel_percent"`
	Notes       string    `json:"notes"`
	PhotoURLs   []string  `json:"photo_urls"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// IsComplete returns true if the checklist carries a usable odometer reading.
func (c *Checklist) IsComplete() bool {
	return c != nil && c.Odometer > 0
}

// DepositInfo records the security deposit taken at pickup.
type DepositInfo struct {
	Amount int64  `json:"amount"`
	Kind   string `json:"kind"` // cash, id_card, motorbike, ...
	Notes  string `json:"notes"`
}
