package bridge

import (
	"encoding/json"
	"time"

	"github.com/hostlink-protocol/hostlink-go/pkg/log"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// categoryFor separates liveness and cancellation traffic from
// application calls, so log filters can exclude the chatter.
func categoryFor(op wire.Operation) log.Category {
	if op == wire.OpPing || op == wire.OpCancel {
		return log.CategoryControl
	}
	return log.CategoryMessage
}

// requestEvent builds the wire-layer log event for a request envelope.
func requestEvent(role log.Role, connID, appName string, direction log.Direction, req *wire.Request) log.Event {
	op := req.Op
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerWire,
		Category:     categoryFor(req.Op),
		LocalRole:    role,
		AppName:      appName,
		Message: &log.MessageEvent{
			Type:      log.MessageTypeRequest,
			MessageID: req.MessageID,
			Operation: &op,
			Assembly:  req.Assembly,
			TypeName:  req.TypeName,
			Member:    req.Member,
			HandleID:  req.HandleID,
		},
	}
}

// responseEvent builds the wire-layer log event for a response
// envelope. processingTime is only meaningful on the serving side, and
// category follows the request's operation where the caller knows it;
// pass zero and log.CategoryMessage elsewhere.
func responseEvent(role log.Role, connID, appName string, direction log.Direction, resp *wire.Response, processingTime time.Duration, category log.Category) log.Event {
	status := resp.Status
	msg := &log.MessageEvent{
		Type:      log.MessageTypeResponse,
		MessageID: resp.MessageID,
		Status:    &status,
	}
	if processingTime > 0 {
		msg.ProcessingTime = &processingTime
	}
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerWire,
		Category:     category,
		LocalRole:    role,
		AppName:      appName,
		Message:      msg,
	}
}

// errorEvent builds a wire-layer error event.
func errorEvent(role log.Role, connID, appName string, err error, context string) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		LocalRole:    role,
		AppName:      appName,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: context,
		},
	}
}

// peekMessageID extracts the message id from an envelope that failed
// full decoding, so the error response still correlates.
func peekMessageID(data []byte) uint32 {
	var peek struct {
		MessageID uint32 `json:"id"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return 0
	}
	return peek.MessageID
}
