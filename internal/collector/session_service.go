package collector

import (
	"context"

	"github.com/5c4lar/Bear/internal/envmerge"
	"github.com/5c4lar/Bear/internal/rpcpb"
)

// SessionService answers a supervisor's environment-overlay request
// before it spawns the intercepted program. The overlay is a small,
// operator-configured set of extra variables (e.g. chaining another
// LD_PRELOAD library, or forcing a compiler-wrapper env var) unioned
// on top of whatever the supervisor already observed locally — the
// collector never needs to know the supervisor's full base
// environment, only what to add to it.
type SessionService struct {
	overlay map[string]string
}

// NewSessionService builds a SessionService with a fixed overlay,
// typically sourced from internal/buildconfig.
func NewSessionService(overlay map[string]string) *SessionService {
	if overlay == nil {
		overlay = map[string]string{}
	}
	return &SessionService{overlay: overlay}
}

// GetEnvironmentUpdate implements rpcpb.SessionServiceServer.
func (s *SessionService) GetEnvironmentUpdate(ctx context.Context, req *rpcpb.EnvironmentRequest) (*rpcpb.EnvironmentResponse, error) {
	merged := envmerge.Union(req.Environment, s.overlay)
	overlay := make(map[string]string, len(s.overlay))
	for k := range s.overlay {
		overlay[k] = merged[k]
	}
	return &rpcpb.EnvironmentResponse{Environment: overlay}, nil
}
