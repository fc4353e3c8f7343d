package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/smile2mqtt/internal/adapter/actor"
	"github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/internal/mqtt"
	"github.com/berfenger/smile2mqtt/internal/util"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const adamFixture = "../../../pkg/smile_xml/testdata/adam.xml"

func spawnTestMaster(t *testing.T, lockPolicy smile_xml.LockPolicy) (*actor.ActorSystem, *actor.RootContext, *actor.PID, *smile_xml.TestTransport) {
	t.Helper()

	tr, err := smile_xml.NewFixtureTransport(adamFixture)
	if err != nil {
		t.Fatal(err)
	}
	client := smile_xml.NewClient(tr)

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.GatewayActor {
			return adactor.NewGatewayActor(client, lockPolicy, logger)
		}, func(*eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Fatal(err)
	}
	return as, context, pid, tr
}

func TestMasterActorHealthCheck(t *testing.T) {

	as, context, pid, _ := spawnTestMaster(t, smile_xml.LockPolicyBlock)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorForwardsGetDevices(t *testing.T) {

	as, context, pid, _ := spawnTestMaster(t, smile_xml.LockPolicyBlock)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetDevicesRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := res.(domain.GetDevicesResponse)
	assert.True(t, ok)
	assert.False(t, resp.HasResponseError())
	assert.NotNil(t, resp.Snapshot)
	_, ok = resp.Snapshot.Device("app_lisa")
	assert.True(t, ok, "zone thermostat present")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorRoutesRelayCommand(t *testing.T) {

	as, context, pid, tr := spawnTestMaster(t, smile_xml.LockPolicyForce)

	time.Sleep(2 * time.Second)

	// Commands arrive with the hashed device id used on the MQTT side.
	context.Send(pid, adactor.ParsedCommand{
		Command: &mqtt.ParsedMQTTCommand{
			DeviceId: domain.MQTTDeviceId("app_plug"),
			ObjectId: "relay",
			Command:  mqtt.COMMAND_SWITCH,
			Payload:  "off",
		},
	})

	time.Sleep(2 * time.Second)

	puts := tr.RecordedPuts()
	assert.Len(t, puts, 1, "relay write reached the gateway")
	assert.Contains(t, puts[0].Path, "app_plug", "write targets the real device id")
	assert.Contains(t, puts[0].Body, "<state>off</state>", "relay state body")

	context.Stop(pid)

	as.Shutdown()
}
