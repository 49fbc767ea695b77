package http

import (
	"encoding/json"

	"github.com/roomcast/roomcast-server/internal/engine"
	"github.com/roomcast/roomcast-server/internal/proto"
)

func (h *WSHandler) inboundToCommand(inbound proto.Inbound) (*engine.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeIdentify:
		var data proto.IdentifyData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Protocol != 0 && data.Protocol != proto.ProtocolVersion {
			return nil, &proto.Error{Code: "unsupported_protocol", Msg: "unsupported protocol version"}, nil
		}
		claims, err := h.auth.ValidateToken(data.Token)
		if err != nil {
			return nil, &proto.Error{Code: "invalid_token", Msg: "token is missing or invalid"}, nil
		}
		return &engine.Command{
			Kind:     engine.CommandIdentify,
			Identity: claims.Identity(),
		}, nil, nil

	case proto.InboundTypeJoin, proto.InboundTypeLeave, proto.InboundTypeTypingStart, proto.InboundTypeTypingStop:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, &proto.Error{Code: engine.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		kind := map[string]engine.CommandKind{
			proto.InboundTypeJoin:        engine.CommandJoinRoom,
			proto.InboundTypeLeave:       engine.CommandLeaveRoom,
			proto.InboundTypeTypingStart: engine.CommandTypingStart,
			proto.InboundTypeTypingStop:  engine.CommandTypingStop,
		}[inbound.Type]
		return &engine.Command{Kind: kind, Room: data.Room}, nil, nil

	case proto.InboundTypeMsg:
		var data proto.MsgData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, &proto.Error{Code: engine.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		if data.Text == "" {
			return nil, &proto.Error{Code: engine.ErrCodeBadRequest, Msg: "text is required"}, nil
		}
		return &engine.Command{
			Kind: engine.CommandSendMessage,
			Room: data.Room,
			Text: data.Text,
		}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func toMessageData(msg *engine.Message) proto.MessageData {
	return proto.MessageData{
		ID:   msg.ID,
		Room: msg.Room,
		User: msg.From,
		Text: msg.Text,
		TS:   msg.CreatedAt.Unix(),
	}
}

func outboundFromEvent(event *engine.Event) proto.Outbound {
	switch event.Kind {
	case engine.EventConnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventConnected,
			Data: proto.ConnectedData{
				User:     event.User,
				Protocol: proto.ProtocolVersion,
			},
		}
	case engine.EventRoomMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageName,
			Data:  toMessageData(event.Message),
		}
	case engine.EventHistory:
		messages := make([]proto.MessageData, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, toMessageData(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventHistoryName,
			Data: proto.HistoryData{
				Room:     event.Room,
				Messages: messages,
			},
		}
	case engine.EventUserJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserJoined,
			Data:  proto.PresenceData{Room: event.Room, User: event.User},
		}
	case engine.EventUserLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserLeft,
			Data:  proto.PresenceData{Room: event.Room, User: event.User},
		}
	case engine.EventTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTyping,
			Data:  proto.TypingData{Room: event.Room, User: event.User},
		}
	case engine.EventStopTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventStopTyping,
			Data:  proto.TypingData{Room: event.Room, User: event.User},
		}
	case engine.EventNotification:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNotification,
			Data: proto.NotificationData{
				Kind: event.Notification.Kind,
				From: event.Notification.From,
				Room: event.Notification.Room,
			},
		}
	case engine.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
