package models

import (
	"irdesk/pkg/platform/strings"
)

// Holder is one record of the authoritative shareholder registry.
type Holder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizedID is the lookup key for the holder.
func (h Holder) NormalizedID() string {
	return strings.NormalizeHolderID(h.ID)
}

// Matches reports whether the claimed id and company name equal this record
// under normalization.
func (h Holder) Matches(claimedID, claimedName string) bool {
	id := strings.NormalizeHolderID(claimedID)
	name := strings.NormalizeCompanyName(claimedName)
	if id == "" || name == "" {
		return false
	}
	return id == h.NormalizedID() && name == strings.NormalizeCompanyName(h.Name)
}
