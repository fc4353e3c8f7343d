package actor

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/berfenger/smile2mqtt/internal/config"
	"github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/internal/util/actorutil"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type HADiscoveryActor struct {
	config              *config.Config
	behavior            actor.Behavior
	stash               *actorutil.Stash
	gatewayActor        *actor.PID
	mqttActor           *actor.PID
	gatewayActorHealthy bool
	mqttActorHealthy    bool
	healthyRecv         int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, gatewayActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		gatewayActor: gatewayActor,
		mqttActor:    mqttActor,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Gateway and MQTT actor healthy
		state.healthyRecv = 0
		state.gatewayActorHealthy = false
		state.mqttActorHealthy = false
		// Gateway Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.gatewayActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_GATEWAY,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_GATEWAY:
				state.gatewayActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.gatewayActorHealthy && state.mqttActorHealthy {
				// Ask Gateway for the current snapshot
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.gatewayActor, domain.GetDevicesRequest{}, 2*time.Second), func(err error) any {
					return domain.GetDevicesResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingDevicesReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Gateway Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingDevicesReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetDevicesResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		if msg.Snapshot == nil || msg.Snapshot.Gateway == nil {
			panic(errors.New("discovery requires a published snapshot"))
		}
		state.logger.Debug("hadiscovery@devices: GetDevicesResponse",
			zap.Int("devices", len(msg.Snapshot.Devices)))

		var sensors []domain.GenericSensor
		var switches []domain.GenericSwitch
		var climates []domain.GenericClimate
		var selects []domain.GenericSelect

		bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
		sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

		gatewayDevice := domain.GatewayDevice(msg.Snapshot.Gateway)
		gatewayDevice.ViaDevice = bridgeDevice.Id
		modes := climateModes(msg.Snapshot.Gateway)

		ids := make([]string, 0, len(msg.Snapshot.Devices))
		for id := range msg.Snapshot.Devices {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			rec := msg.Snapshot.Devices[id]
			var device domain.Device
			if id == msg.Snapshot.Gateway.GatewayID {
				device = gatewayDevice
			} else {
				device = domain.RecordDevice(rec, gatewayDevice)
			}

			// Only the first entity of each device carries the full device
			// info, the rest reference it by id.
			entityDevice := device
			for _, s := range domain.DeviceSensors(entityDevice, rec) {
				sensors = append(sensors, s)
				entityDevice = domain.IdDevice(device)
			}
			for _, sw := range domain.DeviceSwitches(entityDevice, rec) {
				switches = append(switches, sw)
				entityDevice = domain.IdDevice(device)
			}
			if climate := domain.DeviceClimate(entityDevice, rec, modes); climate != nil {
				climates = append(climates, *climate)
				entityDevice = domain.IdDevice(device)
			}
			selects = append(selects, domain.DeviceSelects(entityDevice, rec)...)
		}

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors:  sensors,
			Switches: switches,
			Climates: climates,
			Selects:  selects,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@devices: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func climateModes(gw *smile_xml.GatewayContext) []string {
	modes := []string{"auto", "heat"}
	if gw.CoolingPresent {
		modes = append(modes, "cool", "heat_cool")
	}
	modes = append(modes, "off")
	return modes
}
