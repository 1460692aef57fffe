package upload

import "time"

// Upload is the ledger row of one stored original. Derivatives have no row;
// they live next to the original on disk.
type Upload struct {
	ID               string    `gorm:"column:id;primaryKey" json:"id"`
	UserID           int64     `gorm:"column:user_id;index" json:"user_id"`
	Category         string    `gorm:"column:category;index" json:"category"`
	FileName         string    `gorm:"column:file_name" json:"filename"`
	FilePath         string    `gorm:"column:file_path" json:"-"`                // relative to the uploads root
	FileURL          string    `gorm:"column:file_url;uniqueIndex" json:"url"` // public HTTP path
	OriginalName     string    `gorm:"column:original_name" json:"original_name"`
	MimeType         string    `gorm:"column:mime_type" json:"mime_type"`
	Size             int64     `gorm:"column:size" json:"size"`
	DerivativeStatus string    `gorm:"column:derivative_status" json:"derivatives"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }
