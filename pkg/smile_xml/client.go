package smile_xml

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Transport carries XML documents to and from a gateway.
type Transport interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, body []byte) error
}

type zoneMeta struct {
	name string
	kind string
}

// Snapshot is one immutable, fully derived view of the gateway. Readers may
// hold on to a snapshot for as long as they like; a refresh never mutates a
// published snapshot.
type Snapshot struct {
	Gateway     *GatewayContext
	Devices     map[string]*DeviceRecord
	RefreshedAt time.Time

	schedules *scheduleIndex
	zones     map[string]zoneMeta
}

// Device returns a device by id.
func (s *Snapshot) Device(id string) (*DeviceRecord, bool) {
	d, ok := s.Devices[id]
	return d, ok
}

// Client polls a gateway and keeps the latest successful snapshot readable.
// Refreshes are serialized; a failed refresh leaves the previous snapshot in
// place.
type Client struct {
	transport Transport
	logger    *log.Entry

	refreshMu sync.Mutex

	snapMu sync.RWMutex
	snap   *Snapshot
}

func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
		logger:    log.WithField("component", "smile"),
	}
}

// Connect performs the first refresh and verifies the gateway is a supported
// product.
func (c *Client) Connect(ctx context.Context) (*GatewayContext, error) {
	snap, err := c.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.WithFields(log.Fields{
		"product":  snap.Gateway.SmileName,
		"firmware": snap.Gateway.FirmwareVersion.String(),
		"devices":  len(snap.Devices),
	}).Info("connected to gateway")
	return snap.Gateway, nil
}

// Refresh fetches /core/domain_objects, rebuilds the device records and
// publishes the new snapshot. Returns the new snapshot on success.
func (c *Client) Refresh(ctx context.Context) (*Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	data, err := c.transport.Get(ctx, PathDomainObjects)
	if err != nil {
		return nil, fmt.Errorf("fetch domain objects: %w", err)
	}
	prev := c.Snapshot()
	snap, err := buildSnapshot(data, prev)
	if err != nil {
		return nil, err
	}
	c.snapMu.Lock()
	c.snap = snap
	c.snapMu.Unlock()
	return snap, nil
}

// buildSnapshot runs the full parse, classify and derive pipeline on one
// document body.
func buildSnapshot(data []byte, prev *Snapshot) (*Snapshot, error) {
	doc, err := ParseDomainObjects(data)
	if err != nil {
		return nil, err
	}
	gwCtx, err := resolveGatewayContext(doc)
	if err != nil {
		return nil, err
	}
	graph := newObjectGraph(doc)
	devices := classify(graph, gwCtx)
	idx := resolveSchedules(graph, gwCtx, devices)

	prevStates := map[string]string{}
	if prev != nil {
		for id, d := range prev.Devices {
			if d.ControlState != "" {
				prevStates[id] = d.ControlState
			}
		}
	}
	deriveStates(devices, gwCtx, prevStates)

	zones := make(map[string]zoneMeta, len(doc.Locations))
	for i := range doc.Locations {
		l := &doc.Locations[i]
		zones[l.ID] = zoneMeta{name: l.Name, kind: l.Type}
	}
	return &Snapshot{
		Gateway:     gwCtx,
		Devices:     devices,
		RefreshedAt: time.Now(),
		schedules:   idx,
		zones:       zones,
	}, nil
}

// Snapshot returns the last successfully published snapshot, which may be
// stale after failed refreshes. Nil before the first successful refresh.
func (c *Client) Snapshot() *Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Execute delivers a payload. A nil payload is a no-op.
func (c *Client) Execute(ctx context.Context, p *Payload) error {
	if p == nil {
		return nil
	}
	c.logger.WithFields(log.Fields{"target": p.Target, "path": p.Path}).Debug("executing command")
	if err := c.transport.Put(ctx, p.Path, []byte(p.Body)); err != nil {
		return fmt.Errorf("put %s: %w", p.Path, err)
	}
	return nil
}

func (c *Client) currentSnapshot() (*Snapshot, error) {
	snap := c.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("no snapshot available yet")
	}
	return snap, nil
}

// SetTemperature validates and writes a setpoint change.
func (c *Client) SetTemperature(ctx context.Context, deviceID string, values map[string]float64) error {
	snap, err := c.currentSnapshot()
	if err != nil {
		return err
	}
	p, err := snap.BuildSetTemperature(deviceID, values)
	if err != nil {
		return err
	}
	return c.Execute(ctx, p)
}

// SetScheduleState activates or deactivates a schedule on a device's zone.
func (c *Client) SetScheduleState(ctx context.Context, deviceID, name string, active bool) error {
	snap, err := c.currentSnapshot()
	if err != nil {
		return err
	}
	p, err := snap.BuildSetScheduleState(deviceID, name, active)
	if err != nil {
		return err
	}
	return c.Execute(ctx, p)
}

// SetRelayState writes a relay change, honoring the lock policy. For switch
// groups the write fans out to every member.
func (c *Client) SetRelayState(ctx context.Context, deviceID string, on bool, policy LockPolicy) error {
	snap, err := c.currentSnapshot()
	if err != nil {
		return err
	}
	rec, ok := snap.Devices[deviceID]
	if !ok {
		return fmt.Errorf("%w: device %s", ErrUnknownTarget, deviceID)
	}
	targets := []string{deviceID}
	if len(rec.Members) > 0 {
		targets = rec.Members
	}
	for _, id := range targets {
		p, err := snap.BuildSetRelayState(id, on, policy)
		if err != nil {
			return err
		}
		if err := c.Execute(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// SetPreset switches a zone preset.
func (c *Client) SetPreset(ctx context.Context, deviceID, preset string) error {
	snap, err := c.currentSnapshot()
	if err != nil {
		return err
	}
	p, err := snap.BuildSetPreset(deviceID, preset)
	if err != nil {
		return err
	}
	return c.Execute(ctx, p)
}

// SetRegulationMode switches the heating regulation mode.
func (c *Client) SetRegulationMode(ctx context.Context, mode string) error {
	snap, err := c.currentSnapshot()
	if err != nil {
		return err
	}
	p, err := snap.BuildSetRegulationMode(mode)
	if err != nil {
		return err
	}
	return c.Execute(ctx, p)
}

// SetGatewayMode switches the gateway operation mode.
func (c *Client) SetGatewayMode(ctx context.Context, mode string) error {
	snap, err := c.currentSnapshot()
	if err != nil {
		return err
	}
	p, err := snap.BuildSetGatewayMode(mode)
	if err != nil {
		return err
	}
	return c.Execute(ctx, p)
}
