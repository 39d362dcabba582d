package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/invoicely/internal/invoice/live"
	"github.com/smallbiznis/invoicely/internal/usercontext"
	"go.uber.org/zap"
)

const liveHeartbeatInterval = 15 * time.Second

// snapshotEvent carries the owner's whole collection; clients replace their
// list with it rather than merging.
type snapshotEvent struct {
	Invoices []invoiceView `json:"invoices"`
	Change   *live.Change  `json:"change,omitempty"`
}

// StreamInvoices pushes a fresh snapshot of the caller's invoices whenever
// one of them changes, starting with the current state.
func (s *Server) StreamInvoices(c *gin.Context) {
	if s.hub == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	userID, ok := usercontext.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	subscription, err := s.hub.Subscribe(userID.String())
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	ctx := c.Request.Context()
	s.obsMetrics.AddLiveSubscribers(ctx, 1)
	defer s.obsMetrics.AddLiveSubscribers(context.WithoutCancel(ctx), -1)

	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	if err := s.writeSnapshot(ctx, writer, ulid.Make().String(), nil); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(s.liveHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-subscription.Changes():
			if !ok {
				return
			}
			if err := s.writeSnapshot(ctx, writer, change.ID, &change); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeSnapshot(ctx context.Context, w io.Writer, id string, change *live.Change) error {
	invoices, err := s.invoiceSvc.Snapshot(ctx)
	if err != nil {
		s.log.Warn("live snapshot failed", zap.Error(err))
		return err
	}
	return writeSnapshotEvent(w, id, snapshotEvent{Invoices: newInvoiceViews(invoices), Change: change})
}

func writeSnapshotEvent(w io.Writer, id string, event snapshotEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: snapshot\ndata: %s\n\n", id, data)
	return err
}
