package models

import (
	"fmt"
	"strings"
	"time"
)

type IssueType string

const (
	IssueRegular IssueType = "regular"
	IssueSpecial IssueType = "special"
)

func (t IssueType) Valid() bool {
	return t == IssueRegular || t == IssueSpecial
}

// Issue is a numbered (volume, number) container; the pair is unique.
type Issue struct {
	ID              uint       `json:"id" gorm:"primarykey"`
	Volume          int        `json:"volume" gorm:"not null;uniqueIndex:idx_issue_volume_number"`
	Number          int        `json:"number" gorm:"not null;uniqueIndex:idx_issue_volume_number"`
	Type            IssueType  `json:"type" gorm:"default:'regular'"`
	Title           string     `json:"title"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Label renders the placement label stored on manuscripts, e.g. "Vol V, Issue I".
func (i *Issue) Label() string {
	return fmt.Sprintf("Vol %s, Issue %s", Roman(i.Volume), Roman(i.Number))
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// Roman formats a positive integer as a roman numeral; non-positive values
// fall back to decimal.
func Roman(n int) string {
	if n <= 0 {
		return fmt.Sprint(n)
	}
	var b strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}
