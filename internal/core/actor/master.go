package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/smile2mqtt/internal/adapter/actor"
	"github.com/berfenger/smile2mqtt/internal/config"
	"github.com/berfenger/smile2mqtt/internal/core/domain"
	. "github.com/berfenger/smile2mqtt/internal/util/actorutil"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type GatewayActorProvider func() *adactor.GatewayActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck   healthCheckResult
	eventStream          *eventstream.EventStream
	gatewayActor         *actor.PID
	mqttActor            *actor.PID
	monitorActor         *actor.PID
	gatewayActorProvider GatewayActorProvider
	mqttActorProvider    MQTTActorProvider
	logger               *zap.Logger
}

type healthCheckResult struct {
	gatewayActorHealthy bool
	mqttActorHealthy    bool
	monitorActorHealthy bool
	checksReceived      int
	respondTo           *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, gatewayActorProvider GatewayActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:               config,
		behavior:             actor.NewBehavior(),
		stash:                &Stash{},
		logger:               ActorLogger("master", logger),
		eventStream:          &eventstream.EventStream{},
		gatewayActorProvider: gatewayActorProvider,
		mqttActorProvider:    mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Gateway child
		gatewayActorPID, err := state.startGatewayActor(ctx)
		if err != nil {
			panic(err)
		}
		state.gatewayActor = gatewayActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Monitor child
		monitorActorPID, err := state.startMonitorActor(ctx)
		if err != nil {
			panic(err)
		}
		state.monitorActor = monitorActorPID

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Gateway Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.gatewayActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_GATEWAY,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Monitor Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.monitorActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MONITOR,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.GetDevicesRequest:
		// forward snapshot reads straight to the gateway actor
		ctx.RequestWithCustomSender(state.gatewayActor, msg, ctx.Sender())
	case adactor.ParsedCommand:
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err != nil || cmd == nil {
				if err != nil {
					state.logger.Warn("master@default invalid command", zap.Error(err))
				}
				return
			}
			state.routeCommand(ctx, cmd)
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_GATEWAY) {
			state.logger.Error("master@default gateway error")
			panic(errors.New("gateway terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// routeCommand resolves the hashed MQTT device id of a command against the
// current snapshot, then hands the command to the gateway actor. Gateway
// scoped commands carry no device id and are routed as is.
func (state *MasterOfPuppetsActor) routeCommand(ctx actor.Context, cmd domain.ActorRequest) {
	switch cmd.(type) {
	case domain.SetRegulationModeRequest, domain.SetGatewayModeRequest:
		ctx.Send(state.gatewayActor, cmd)
		return
	}
	future := ctx.RequestFuture(state.gatewayActor, domain.GetDevicesRequest{}, 2*time.Second)
	ctx.ReenterAfter(future, func(res any, err error) {
		if err != nil {
			state.logger.Warn("master@default command dropped, no snapshot", zap.Error(err))
			return
		}
		resp, ok := res.(domain.GetDevicesResponse)
		if !ok || resp.Snapshot == nil {
			state.logger.Warn("master@default command dropped, no snapshot")
			return
		}
		routed := retargetCommand(cmd, resp.Snapshot)
		if routed == nil {
			state.logger.Warn("master@default command dropped, unknown device")
			return
		}
		ctx.Send(state.gatewayActor, routed)
	})
}

func retargetCommand(cmd domain.ActorRequest, snap *smile_xml.Snapshot) domain.ActorRequest {
	switch c := cmd.(type) {
	case domain.SetTemperatureRequest:
		if id, ok := resolveDeviceId(snap, c.DeviceId); ok {
			c.DeviceId = id
			return c
		}
	case domain.SetScheduleStateRequest:
		if id, ok := resolveDeviceId(snap, c.DeviceId); ok {
			c.DeviceId = id
			return c
		}
	case domain.SetRelayStateRequest:
		if id, ok := resolveDeviceId(snap, c.DeviceId); ok {
			c.DeviceId = id
			return c
		}
	case domain.SetPresetRequest:
		if id, ok := resolveDeviceId(snap, c.DeviceId); ok {
			c.DeviceId = id
			return c
		}
	}
	return nil
}

func resolveDeviceId(snap *smile_xml.Snapshot, mqttId string) (string, bool) {
	for id := range snap.Devices {
		if domain.MQTTDeviceId(id) == mqttId {
			return id, true
		}
	}
	return "", false
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_GATEWAY {
				state.currentHealthCheck.gatewayActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MONITOR {
				state.currentHealthCheck.monitorActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startGatewayActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	gatewayProps := actor.PropsFromProducer(func() actor.Actor {
		return state.gatewayActorProvider()
	}, actor.WithSupervisor(supervisor))
	gatewayActorPID, err := ctx.SpawnNamed(gatewayProps, domain.ACTOR_ID_GATEWAY)
	if err != nil {
		return nil, err
	}

	return gatewayActorPID, nil
}

func (state *MasterOfPuppetsActor) startMonitorActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewAllForOneStrategy(1, 10*time.Second, decider)

	monitorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(&state.config, state.gatewayActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	monitorActorPID, err := ctx.SpawnNamed(monitorProps, domain.ACTOR_ID_MONITOR)
	if err != nil {
		return nil, err
	}

	return monitorActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.gatewayActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.gatewayActorHealthy = false
	state.mqttActorHealthy = false
	state.monitorActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 3
}

func (state *healthCheckResult) allHealthy() bool {
	return state.gatewayActorHealthy && state.mqttActorHealthy && state.monitorActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      "master",
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
