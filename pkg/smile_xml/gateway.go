package smile_xml

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a firmware version split into its numeric parts. Suffixes like
// "-beta" are ignored for comparison.
type Version struct {
	Major, Minor, Patch int
}

func ParseVersion(s string) (Version, error) {
	base := s
	if i := strings.IndexAny(base, "-+ "); i >= 0 {
		base = base[:i]
	}
	parts := strings.Split(base, ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("invalid firmware version %q", s)
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, fmt.Errorf("invalid firmware version %q", s)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Version{}, fmt.Errorf("invalid firmware version %q", s)
	}
	if len(parts) > 2 {
		if v.Patch, err = strconv.Atoi(parts[2]); err != nil {
			return Version{}, fmt.Errorf("invalid firmware version %q", s)
		}
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) Before(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// GatewayContext is the identity of the gateway a document came from. It
// drives all firmware and product family branching downstream.
type GatewayContext struct {
	GatewayID       string
	SmileName       string
	SmileModel      string
	Family          string
	FirmwareVersion Version
	Legacy          bool
	Hostname        string
	VendorName      string
	CoolingPresent  bool

	// Resolved during classification.
	HeaterID       string
	OnOffDevice    bool
	OpenThermDevice bool
	ItemCount      int
}

// resolveGatewayContext maps vendor_model and firmware onto a known product.
// An unrecognized combination yields ErrUnsupportedDevice.
func resolveGatewayContext(doc *DomainObjects) (*GatewayContext, error) {
	gw := doc.Gateway
	fw, err := ParseVersion(gw.FirmwareVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDevice, err.Error())
	}
	model := gw.VendorModel
	if model == "" {
		model = "smile"
	}
	key := fmt.Sprintf("%s_v%d", model, fw.Major)
	product, ok := smileProducts[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown product %q firmware %s", ErrUnsupportedDevice, model, fw)
	}
	ctx := &GatewayContext{
		GatewayID:       gw.ID,
		SmileName:       product.name,
		SmileModel:      model,
		Family:          product.family,
		FirmwareVersion: fw,
		Legacy:          product.legacy,
		Hostname:        gw.Hostname,
		VendorName:      gw.VendorName,
	}
	if gw.Features != nil && gw.Features.Cooling != nil {
		ctx.CoolingPresent = true
	}
	return ctx, nil
}
