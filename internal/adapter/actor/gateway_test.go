package actor

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/internal/util/actorutil"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const adamFixture = "../../../pkg/smile_xml/testdata/adam.xml"

func TestGetDevicesGatewayActor(t *testing.T) {

	assert := assert.New(t)

	tr, err := smile_xml.NewFixtureTransport(adamFixture)
	if err != nil {
		t.Error(err)
		return
	}
	client := smile_xml.NewClient(tr)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewGatewayActor(client, smile_xml.LockPolicyBlock, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetDevicesRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetDevicesResponse)

	assert.False(resp.HasResponseError(), "no response error")
	assert.NotNil(resp.Snapshot, "snapshot published")
	assert.Equal("Adam", resp.Snapshot.Gateway.SmileName, "gateway product")

	lisa, ok := resp.Snapshot.Device("app_lisa")
	assert.True(ok, "zone thermostat present")
	assert.NotNil(lisa.Thermostat, "thermostat info present")
	assert.Equal(21.0, lisa.Thermostat.Setpoint, "setpoint value")

	context.Stop(pid)

	as.Shutdown()
}

func TestSetTemperatureGatewayActor(t *testing.T) {

	assert := assert.New(t)

	tr, err := smile_xml.NewFixtureTransport(adamFixture)
	if err != nil {
		t.Error(err)
		return
	}
	client := smile_xml.NewClient(tr)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewGatewayActor(client, smile_xml.LockPolicyBlock, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.SetTemperatureRequest{
		DeviceId:  "app_lisa",
		Setpoints: map[string]float64{smile_xml.SetpointKey: 19.5},
	}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.SetTemperatureResponse)
	assert.False(resp.HasResponseError(), "no response error")

	puts := tr.RecordedPuts()
	assert.Equal(1, len(puts), "one write reached the gateway")
	assert.Contains(puts[0].Body, "<setpoint>19.50</setpoint>", "setpoint body")

	// An out of bounds setpoint is rejected before any write.
	msg = domain.SetTemperatureRequest{
		DeviceId:  "app_lisa",
		Setpoints: map[string]float64{smile_xml.SetpointKey: 55},
	}
	result, err = context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp = result.(domain.SetTemperatureResponse)
	assert.True(resp.HasResponseError(), "out of bounds setpoint fails")
	assert.Equal(1, len(tr.RecordedPuts()), "rejected write never reaches the gateway")

	context.Stop(pid)

	as.Shutdown()
}

func TestRefreshKeepsStaleSnapshotGatewayActor(t *testing.T) {

	assert := assert.New(t)

	tr, err := smile_xml.NewFixtureTransport(adamFixture)
	if err != nil {
		t.Error(err)
		return
	}
	client := smile_xml.NewClient(tr)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewGatewayActor(client, smile_xml.LockPolicyBlock, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	first := client.Snapshot()
	assert.NotNil(first, "first snapshot published")

	tr.SetGetError(errors.New("gateway unreachable"))

	result, err := context.RequestFuture(pid, domain.RefreshRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.RefreshResponse)
	assert.True(resp.HasResponseError(), "failed refresh reports the error")
	assert.Same(first, resp.Snapshot, "stale snapshot stays readable")

	context.Stop(pid)

	as.Shutdown()
}
