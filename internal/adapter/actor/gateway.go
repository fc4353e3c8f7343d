package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/internal/util/actorutil"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	GATEWAY_ACTOR_ID = "gateway"

	gatewayOpTimeout = 15 * time.Second
)

// GatewayActor serializes all access to the Smile gateway. Reads and writes
// run as background tasks while the actor stashes incoming messages, so a
// slow gateway never blocks the actor system.
type GatewayActor struct {
	behavior   actor.Behavior
	stash      *actorutil.Stash
	client     *smile_xml.Client
	lockPolicy smile_xml.LockPolicy
	logger     *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewGatewayActor(client *smile_xml.Client, lockPolicy smile_xml.LockPolicy, logger *zap.Logger) *GatewayActor {
	act := &GatewayActor{
		client:     client,
		lockPolicy: lockPolicy,
		behavior:   actor.NewBehavior(),
		stash:      &actorutil.Stash{},
		logger:     actorutil.ActorLogger("gateway", logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *GatewayActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *GatewayActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("gateway@starting started")
		gw, err := state.client.Connect(context.Background())
		if err != nil {
			panic(err)
		}
		state.logger.Info("connected to gateway",
			zap.String("model", gw.SmileModel),
			zap.String("firmware", gw.FirmwareVersion.String()),
			zap.Bool("legacy", gw.Legacy))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("gateway@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *GatewayActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("gateway@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      GATEWAY_ACTOR_ID,
			Healthy: state.client.Snapshot() != nil,
			State:   "idle",
		})
	case domain.GetDevicesRequest:
		state.logger.Debug("gateway@default: GetDevicesRequest")
		// snapshot reads never block, no background task needed
		snap := state.client.Snapshot()
		resp := domain.GetDevicesResponse{Snapshot: snap}
		if snap == nil {
			resp.ResponseError = smile_xml.ErrIncompleteResponse
		}
		actorutil.ForRequest(msg).Respond(ctx, resp)
	case domain.RefreshRequest:
		state.logger.Debug("gateway@default: RefreshRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runGatewayTask(state, ctx, sender, func() (*domain.RefreshResponse, error) {
			snap, err := state.client.Refresh(context.Background())
			if err != nil {
				return nil, err
			}
			return &domain.RefreshResponse{Snapshot: snap}, nil
		}, func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.RefreshResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
					Snapshot:           state.client.Snapshot(),
				},
				replyTo: sender,
			}
		})
	case domain.SetTemperatureRequest:
		state.logger.Debug("gateway@default: SetTemperatureRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runGatewayTask(state, ctx, sender, func() (*domain.SetTemperatureResponse, error) {
			err := state.client.SetTemperature(context.Background(), msg.DeviceId, msg.Setpoints)
			return &domain.SetTemperatureResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}, nil
		}, func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetTemperatureResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		})
	case domain.SetScheduleStateRequest:
		state.logger.Debug("gateway@default: SetScheduleStateRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runGatewayTask(state, ctx, sender, func() (*domain.SetScheduleStateResponse, error) {
			err := state.client.SetScheduleState(context.Background(), msg.DeviceId, msg.Schedule, msg.Active)
			return &domain.SetScheduleStateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}, nil
		}, func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetScheduleStateResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		})
	case domain.SetRelayStateRequest:
		state.logger.Debug("gateway@default: SetRelayStateRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runGatewayTask(state, ctx, sender, func() (*domain.SetRelayStateResponse, error) {
			err := state.client.SetRelayState(context.Background(), msg.DeviceId, msg.On, state.lockPolicy)
			return &domain.SetRelayStateResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}, nil
		}, func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetRelayStateResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		})
	case domain.SetPresetRequest:
		state.logger.Debug("gateway@default: SetPresetRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runGatewayTask(state, ctx, sender, func() (*domain.SetPresetResponse, error) {
			err := state.client.SetPreset(context.Background(), msg.DeviceId, msg.Preset)
			return &domain.SetPresetResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}, nil
		}, func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetPresetResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		})
	case domain.SetRegulationModeRequest:
		state.logger.Debug("gateway@default: SetRegulationModeRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runGatewayTask(state, ctx, sender, func() (*domain.SetRegulationModeResponse, error) {
			err := state.client.SetRegulationMode(context.Background(), msg.Mode)
			return &domain.SetRegulationModeResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}, nil
		}, func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetRegulationModeResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		})
	case domain.SetGatewayModeRequest:
		state.logger.Debug("gateway@default: SetGatewayModeRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		runGatewayTask(state, ctx, sender, func() (*domain.SetGatewayModeResponse, error) {
			err := state.client.SetGatewayMode(context.Background(), msg.Mode)
			return &domain.SetGatewayModeResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}, nil
		}, func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SetGatewayModeResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		})
	case *actor.Stopping:
	default:
		state.logger.Debug("gateway@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *GatewayActor) WaitingGateway(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("gateway@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
	default:
		state.logger.Debug("gateway@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func runGatewayTask[T any](state *GatewayActor, ctx actor.Context, sender *actor.PID,
	fn func() (*T, error), recoverFn func(error) backgroundTaskResult) {
	actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, fn),
		mapTaskResult[T](sender)).Recover(recoverFn).
		WithTimeout(gatewayOpTimeout).PipeTo(ctx.Self())
	state.behavior.BecomeStacked(state.WaitingGateway)
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
