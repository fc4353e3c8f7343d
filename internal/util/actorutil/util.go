package actorutil

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/berfenger/smile2mqtt/internal/core/domain"
	"github.com/berfenger/smile2mqtt/internal/mqtt"
	"github.com/berfenger/smile2mqtt/pkg/smile_xml"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps a parsed command topic publish to the
// actor request that executes it. The DeviceId carried over is still the
// hashed MQTT id; the receiver resolves it to a gateway device id.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	switch cmd.Command {
	case mqtt.COMMAND_SWITCH:
		if cmd.ObjectId != "relay" {
			return nil, nil
		}
		return domain.SetRelayStateRequest{
			DeviceId: cmd.DeviceId,
			On:       cmd.Payload == mqtt.MQTT_PAYLOAD_ON,
		}, nil
	case mqtt.COMMAND_SELECT:
		switch cmd.ObjectId {
		case domain.SELECT_ID_SCHEDULE:
			if cmd.Payload == smile_xml.ScheduleOff {
				return domain.SetScheduleStateRequest{DeviceId: cmd.DeviceId, Active: false}, nil
			}
			return domain.SetScheduleStateRequest{DeviceId: cmd.DeviceId, Schedule: cmd.Payload, Active: true}, nil
		case domain.SELECT_ID_REGULATION_MODE:
			return domain.SetRegulationModeRequest{Mode: cmd.Payload}, nil
		case domain.SELECT_ID_GATEWAY_MODE:
			return domain.SetGatewayModeRequest{Mode: cmd.Payload}, nil
		}
		return nil, nil
	case "climate":
		switch cmd.ObjectId {
		case mqtt.COMMAND_TEMPERATURE, "temperature_high", "temperature_low":
			value, err := strconv.ParseFloat(cmd.Payload, 64)
			if err != nil {
				return nil, err
			}
			key := smile_xml.SetpointKey
			if cmd.ObjectId == "temperature_high" {
				key = smile_xml.SetpointHighKey
			} else if cmd.ObjectId == "temperature_low" {
				key = smile_xml.SetpointLowKey
			}
			return domain.SetTemperatureRequest{
				DeviceId:  cmd.DeviceId,
				Setpoints: map[string]float64{key: value},
			}, nil
		case mqtt.COMMAND_PRESET:
			return domain.SetPresetRequest{DeviceId: cmd.DeviceId, Preset: cmd.Payload}, nil
		case mqtt.COMMAND_MODE:
			// "auto" re-enables the last active schedule, any manual mode
			// disables it
			return domain.SetScheduleStateRequest{
				DeviceId: cmd.DeviceId,
				Active:   cmd.Payload == "auto",
			}, nil
		}
	}
	return nil, nil
}
