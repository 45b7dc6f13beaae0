// Package catalogdata embeds the bundled NHTSA-derived base catalog and the
// community overlay shipped with the module, so a caller can build a
// working Decoder without supplying any files of their own.
package catalogdata

import (
	_ "embed"
	"fmt"

	"autolytiq/vindecoder/internal/catalogstore"
)

//go:embed base.json
var baseJSON []byte

//go:embed community_overlay.json
var communityOverlayJSON []byte

// Base parses and returns the bundled official catalog.
func Base() (catalogstore.RawCatalog, error) {
	rc, err := catalogstore.ParseRawCatalog(baseJSON)
	if err != nil {
		return catalogstore.RawCatalog{}, fmt.Errorf("catalogdata: base catalog: %w", err)
	}
	return rc, nil
}

// CommunityOverlay parses and returns the bundled community overlay
// (non-US market WMIs not present in the official NHTSA dataset).
func CommunityOverlay() (catalogstore.RawCatalog, error) {
	rc, err := catalogstore.ParseRawCatalog(communityOverlayJSON)
	if err != nil {
		return catalogstore.RawCatalog{}, fmt.Errorf("catalogdata: community overlay: %w", err)
	}
	return rc, nil
}

// NewDefaultStore builds a MemStore from the bundled base catalog and, when
// includeCommunity is true, the bundled community overlay on top of it.
func NewDefaultStore(includeCommunity bool) (*catalogstore.MemStore, error) {
	base, err := Base()
	if err != nil {
		return nil, err
	}
	if !includeCommunity {
		return catalogstore.NewMemStore(base)
	}
	overlay, err := CommunityOverlay()
	if err != nil {
		return nil, err
	}
	return catalogstore.NewMemStore(base, overlay)
}
