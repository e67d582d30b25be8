package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/camnode/internal/acquisition"
	"github.com/smazurov/camnode/internal/api/models"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Session Status",
		Description: "Current acquisition state, applied settings and pipeline counters",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		if s.session == nil {
			return nil, huma.Error503ServiceUnavailable("No acquisition session")
		}
		return &models.StatusResponse{Body: statusData(s.session.Stats())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "trigger-frame",
		Method:        http.MethodPost,
		Path:          "/api/trigger",
		Summary:       "Software Trigger",
		Description:   "Issue one software trigger. Only available in the trigger and trigger_keyboard modes.",
		Tags:          []string{"session"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{401, 409, 502, 503},
	}, func(ctx context.Context, input *struct{}) (*models.TriggerResponse, error) {
		if s.session == nil {
			return nil, huma.Error503ServiceUnavailable("No acquisition session")
		}

		issued := time.Now()
		if err := s.session.TriggerFrame(acquisition.TriggerSourceAPI); err != nil {
			switch {
			case errors.Is(err, acquisition.ErrNotTriggerMode), errors.Is(err, acquisition.ErrInvalidState):
				return nil, huma.Error409Conflict(err.Error())
			default:
				return nil, huma.Error502BadGateway("Camera rejected the trigger", err)
			}
		}

		return &models.TriggerResponse{
			Body: models.TriggerData{
				Source:    acquisition.TriggerSourceAPI,
				Triggers:  s.session.Stats().Triggers,
				Timestamp: issued.Format(time.RFC3339Nano),
			},
		}, nil
	})
}

func statusData(st acquisition.Stats) models.StatusData {
	data := models.StatusData{
		CameraID: st.CameraID,
		State:    st.State,
		Mode:     st.Mode,
		ROI: models.ROIData{
			Width:   st.ROI.Width,
			Height:  st.ROI.Height,
			OffsetX: st.ROI.OffsetX,
			OffsetY: st.ROI.OffsetY,
		},
		FrameRate: st.FrameRate,
		Counters: models.CounterData{
			Delivered:        st.Source.Delivered,
			Accepted:         st.Source.Accepted,
			Rejected:         st.Source.Rejected,
			DroppedAfterStop: st.Source.Dropped,
			Saved:            st.Worker.Saved,
			WriteFailures:    st.Worker.Failed,
			LastSequence:     st.Worker.LastSequence,
			Triggers:         st.Triggers,
			TriggerErrors:    st.TriggerErrors,
		},
		QueueDepth:     st.QueueDepth,
		QueueHighWater: st.QueueHighWater,
	}
	if st.Exposure != nil {
		data.Exposure = &models.ExposureData{
			RequestedUS: st.Exposure.Requested,
			AppliedUS:   st.Exposure.Applied,
			MinUS:       st.Exposure.Min,
			MaxUS:       st.Exposure.Max,
			Accepted:    st.Exposure.Accepted,
		}
	}
	if !st.StartedAt.IsZero() {
		data.StartedAt = &st.StartedAt
	}
	if !st.StoppedAt.IsZero() {
		data.StoppedAt = &st.StoppedAt
	}
	return data
}
