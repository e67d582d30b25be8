package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/camnode/internal/events"
)

// sessionEventTypes maps SSE event names to the payloads sent on /api/events.
var sessionEventTypes = map[string]any{
	"session-state":      events.SessionStateChangedEvent{},
	"frame-saved":        events.FrameSavedEvent{},
	"frame-dropped":      events.FrameDroppedEvent{},
	"frame-write-failed": events.FrameWriteFailedEvent{},
	"trigger-issued":     events.TriggerIssuedEvent{},
}

// forward sends what arrives on ch until the client disconnects or a write
// fails. keep, when set, filters events out.
func forward(ctx context.Context, ch <-chan any, send sse.Sender, keep func(any) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if keep != nil && !keep(ev) {
				continue
			}
			if err := send.Data(ev); err != nil {
				return
			}
		}
	}
}

// registerSSERoutes registers the session event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Session Event Stream",
		Description: "Session state changes, saved and dropped frames, and software triggers. The first message carries the current state.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, sessionEventTypes, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 64)
		subs := events.Subscriptions{
			events.SubscribeToChannel[events.SessionStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FrameSavedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FrameDroppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FrameWriteFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.TriggerIssuedEvent](s.eventBus, eventCh),
		}
		defer subs.Close()

		if s.session != nil {
			if err := send.Data(currentState(s.session)); err != nil {
				return
			}
		}
		forward(ctx, eventCh, send, nil)
	})
}

// currentState reports the session state as a transition into itself.
func currentState(session Session) events.SessionStateChangedEvent {
	st := session.Stats()
	return events.SessionStateChangedEvent{
		CameraID:  st.CameraID,
		From:      st.State,
		To:        st.State,
		Mode:      st.Mode,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}
}
