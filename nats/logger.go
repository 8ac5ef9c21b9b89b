package nats

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// connectionHandlers logs connection state changes of the NATS client.
func connectionHandlers(log *zap.Logger) []nats.Option {
	return []nats.Option{
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("Disconnected from NATS", zap.String("url", nc.ConnectedUrlRedacted()), zap.Error(err))
				return
			}
			log.Debug("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrlRedacted()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			log.Error("NATS async error", fields...)
		}),
	}
}
