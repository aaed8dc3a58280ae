package driver

import (
	"fmt"

	"github.com/karalabe/usb"
)

// SpaceVendorIDs are the USB vendor IDs 3Dconnexion devices enumerate
// under: the legacy Logitech ID and the current 3Dconnexion ID.
var SpaceVendorIDs = []uint16{0x046D, 0x256F}

// DeviceInfo describes one candidate device found on the bus.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

// List enumerates space navigator candidates currently on the USB bus.
func List() ([]DeviceInfo, error) {
	infos, err := usb.Enumerate(0, 0)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}

	var out []DeviceInfo
	for _, info := range infos {
		if !isSpaceVendor(info.VendorID) {
			continue
		}
		out = append(out, DeviceInfo{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Product:      info.Product,
			Manufacturer: info.Manufacturer,
		})
	}
	return out, nil
}

func isSpaceVendor(vid uint16) bool {
	for _, v := range SpaceVendorIDs {
		if vid == v {
			return true
		}
	}
	return false
}
