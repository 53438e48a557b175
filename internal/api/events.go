package api

import (
	"context"
	"errors"

	"github.com/nerrad567/gray-logic-inventory/internal/entity"
	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/mqtt"
)

// WebSocket channels carrying entity events.
const (
	ChannelEntityCreated  = "entity.created"
	ChannelEntityDeleted  = "entity.deleted"
	ChannelEntityInserted = "entity.inserted"
)

// eventChannel returns the WebSocket channel for an action.
func eventChannel(action entity.Action) string {
	return "entity." + string(action)
}

// publishEvent fans ev out to every configured sink. It runs on the
// request path, so MQTT publishing happens in the background.
func (s *Server) publishEvent(_ context.Context, ev entity.Event) {
	s.hub.Broadcast(eventChannel(ev.Action), ev)

	s.auditLog(ev)

	if s.influx != nil {
		s.influx.WriteEntityMutation(string(ev.Action), ev.Driver)
	}

	if s.mqtt != nil && s.mqtt.IsConnected() {
		topic := s.mqtt.Topics().EntityEvent(string(ev.Action), ev.Driver, ev.Name)
		go func() {
			if err := s.mqtt.PublishJSON(topic, ev, false); err != nil {
				if errors.Is(err, mqtt.ErrNotConnected) {
					s.logger.Debug("mqtt disconnected, entity event not published", "topic", topic)
					return
				}
				s.logger.Warn("publishing entity event failed", "topic", topic, "error", err)
			}
		}()
	}
}
