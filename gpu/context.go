package gpu

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/openfluke/doubler/detector"
	"github.com/openfluke/webgpu/wgpu"
)

// Power preferences accepted by WGPUOptions.
const (
	PowerHighPerformance = "high-performance"
	PowerLowPower        = "low-power"
)

// WGPUOptions controls adapter selection for the WebGPU backend.
type WGPUOptions struct {
	// PreferVendor force-selects the first adapter whose name or vendor
	// contains this string (case-insensitive).
	PreferVendor string
	// Power is tried first; the other preference and the default adapter are
	// the fallbacks.
	Power  string
	Logger *slog.Logger
}

// Context holds the WebGPU objects backing one device.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Report   *detector.Report
}

// openContext selects an adapter and requests a device on it. Failures to
// find an adapter or a device wrap ErrDeviceUnavailable.
func openContext(opts WGPUOptions) (*Context, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Context{}
	c.Instance = wgpu.CreateInstance(nil)
	if c.Instance == nil {
		return nil, fmt.Errorf("%w: failed to create WebGPU instance", ErrDeviceUnavailable)
	}

	if want := strings.ToLower(opts.PreferVendor); want != "" {
		for _, a := range c.Instance.EnumerateAdapters(nil) {
			info := a.GetInfo()
			log.Debug("adapter found", "name", info.Name, "vendor", info.VendorName,
				"device_id", fmt.Sprintf("0x%X", info.DeviceId), "type", info.AdapterType.String())
			if c.Adapter == nil && (strings.Contains(strings.ToLower(info.Name), want) ||
				strings.Contains(strings.ToLower(info.VendorName), want)) {
				c.Adapter = a
				continue
			}
			a.Release()
		}
	}

	var err error
	tryInit := func(opts *wgpu.RequestAdapterOptions) {
		if c.Adapter != nil {
			return
		}
		c.Adapter, err = c.Instance.RequestAdapter(opts)
		if err != nil {
			log.Debug("adapter request failed", "err", err)
		}
	}
	for _, pp := range powerOrder(opts.Power) {
		tryInit(&wgpu.RequestAdapterOptions{PowerPreference: pp})
	}
	tryInit(nil)

	if c.Adapter == nil {
		c.Instance.Release()
		return nil, fmt.Errorf("%w: all adapter attempts failed: %v", ErrDeviceUnavailable, err)
	}

	info := c.Adapter.GetInfo()
	log.Info("using GPU adapter", "name", info.Name, "vendor", info.VendorName)

	c.Device, err = c.Adapter.RequestDevice(nil)
	if err != nil || c.Device == nil {
		c.Adapter.Release()
		c.Instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrDeviceUnavailable, err)
	}
	c.Report = detector.FromAdapter(c.Adapter)
	return c, nil
}

func powerOrder(pref string) []wgpu.PowerPreference {
	if pref == PowerLowPower {
		return []wgpu.PowerPreference{wgpu.PowerPreferenceLowPower, wgpu.PowerPreferenceHighPerformance}
	}
	return []wgpu.PowerPreference{wgpu.PowerPreferenceHighPerformance, wgpu.PowerPreferenceLowPower}
}

// openQueue returns the device's queue. WebGPU exposes a single queue per
// device, so this is where channel creation can fail.
func (c *Context) openQueue() (*wgpu.Queue, error) {
	if c.Queue != nil {
		return c.Queue, nil
	}
	q := c.Device.GetQueue()
	if q == nil {
		return nil, fmt.Errorf("%w: device returned no queue", ErrChannelCreationFailed)
	}
	c.Queue = q
	return q, nil
}

func (c *Context) release() {
	if c.Queue != nil {
		c.Queue.Release()
		c.Queue = nil
	}
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
