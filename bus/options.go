package bus

import "github.com/ardnew/usbipbus/conn"

// descriptor holds the OP LIST/IMPORT device-descriptor fields an
// embedder may override. Everything else about the exported device
// (bus number, device number, path, bus_id, configuration count) is
// fixed, since this bus exports exactly one device.
type descriptor struct {
	vendorID      uint16
	productID     uint16
	deviceVersion uint16
	speed         uint32
	class         uint8
	subClass      uint8
	protocol      uint8
}

func defaultDescriptor() descriptor {
	return descriptor{
		vendorID:  0x1111,
		productID: 0x1010,
		speed:     3,
	}
}

type config struct {
	listenAddress string
	descriptor    descriptor
}

func defaultConfig() config {
	return config{
		listenAddress: conn.DefaultAddress,
		descriptor:    defaultDescriptor(),
	}
}

// Option configures a [Bus] at construction time.
type Option func(*config)

// WithListenAddress overrides the default TCP listen address
// (127.0.0.1:3240).
func WithListenAddress(addr string) Option {
	return func(c *config) { c.listenAddress = addr }
}

// WithVendorID overrides the OP LIST/IMPORT idVendor field.
func WithVendorID(id uint16) Option {
	return func(c *config) { c.descriptor.vendorID = id }
}

// WithProductID overrides the OP LIST/IMPORT idProduct field.
func WithProductID(id uint16) Option {
	return func(c *config) { c.descriptor.productID = id }
}

// WithDeviceVersion overrides the OP LIST/IMPORT bcdDevice field.
func WithDeviceVersion(v uint16) Option {
	return func(c *config) { c.descriptor.deviceVersion = v }
}

// WithSpeed overrides the reported USB/IP link speed.
func WithSpeed(speed uint32) Option {
	return func(c *config) { c.descriptor.speed = speed }
}

// WithDeviceClass overrides bDeviceClass, bDeviceSubClass, and
// bDeviceProtocol.
func WithDeviceClass(class, subClass, protocol uint8) Option {
	return func(c *config) {
		c.descriptor.class = class
		c.descriptor.subClass = subClass
		c.descriptor.protocol = protocol
	}
}
