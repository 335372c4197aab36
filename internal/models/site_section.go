package models

import "time"

// Section names editable from the admin panel.
const (
	SectionHero      = "hero"
	SectionServices  = "services"
	SectionPortfolio = "portfolio"
	SectionContact   = "contact"
)

var Sections = []string{SectionHero, SectionServices, SectionPortfolio, SectionContact}

func IsSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// SiteSection stores one section of the landing page as a JSON document.
type SiteSection struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Data      string    `gorm:"type:jsonb;not null" json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SiteSection) TableName() string {
	return "site_sections"
}
