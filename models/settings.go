package models

// Settings holds the marketplace credentials and limits.
// At most one row exists; saves go through an upsert.
type Settings struct {
	ID             uint   `gorm:"primaryKey"`
	Net32Username  string `gorm:"column:net32_username"`
	Net32Password  string `gorm:"column:net32_password"`
	MaxPriceBreaks int    `gorm:"column:max_price_breaks"`
}

func (s *Settings) TableName() string {
	return "settings"
}

// DefaultMaxPriceBreaks caps how many price tiers a metadata fetch maps.
const DefaultMaxPriceBreaks = 5
