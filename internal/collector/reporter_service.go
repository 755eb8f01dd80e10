package collector

import (
	"io"

	"github.com/5c4lar/Bear/internal/metrics"
	"github.com/5c4lar/Bear/internal/report"
	"github.com/5c4lar/Bear/internal/rpcpb"
	"go.uber.org/zap"
)

// ReporterService accepts the client-streamed lifecycle events a
// supervisor sends for one execution and folds each into the Store,
// persisting after every event so the on-disk report never lags more
// than one event behind reality (spec.md §4.2 "Reporting").
type ReporterService struct {
	store  *Store
	logger *zap.Logger
}

// NewReporterService builds a ReporterService writing into store.
func NewReporterService(store *Store, logger *zap.Logger) *ReporterService {
	return &ReporterService{store: store, logger: logger}
}

// Report implements rpcpb.ReporterServiceServer.
func (s *ReporterService) Report(stream rpcpb.ReporterService_ReportServer) error {
	accepted := int32(0)

	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return stream.SendAndClose(&rpcpb.ReportSummary{EventsAccepted: accepted})
		}
		if err != nil {
			return err
		}

		if err := s.apply(msg); err != nil {
			s.logger.Warn("dropping event", zap.Int32("pid", msg.Pid), zap.Error(err))
			continue
		}
		accepted++

		if err := s.store.Persist(); err != nil {
			s.logger.Error("persisting report failed", zap.Error(err))
		}
	}
}

func (s *ReporterService) apply(msg *rpcpb.EventRequest) error {
	if msg.Command != nil {
		var ppid *int
		if msg.Ppid != 0 {
			v := int(msg.Ppid)
			ppid = &v
		}
		if err := s.store.Start(msg.Pid, *msg.Command, ppid, msg.Event); err != nil {
			return err
		}
		metrics.IncExecutionStarted()
		return nil
	}
	if err := s.store.Append(msg.Pid, msg.Event); err != nil {
		return err
	}
	if msg.Event.Type == report.EventStopped {
		metrics.IncExecutionStopped()
	}
	return nil
}
