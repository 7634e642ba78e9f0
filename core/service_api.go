package core

import (
	"context"

	"pkt.systems/hackterm/schema"
)

// Service is the transport-agnostic API for terminal sessions.
type Service interface {
	OpenSession(ctx context.Context, req schema.OpenSessionRequest) (schema.OpenSessionResponse, error)
	CloseSession(ctx context.Context, req schema.CloseSessionRequest) (schema.CloseSessionResponse, error)
	GetSession(ctx context.Context, req schema.GetSessionRequest) (schema.GetSessionResponse, error)
	Submit(ctx context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error)
	Recall(ctx context.Context, req schema.RecallRequest) (schema.RecallResponse, error)
	TypeInput(ctx context.Context, req schema.TypeInputRequest) (schema.TypeInputResponse, error)
	GetTranscript(ctx context.Context, req schema.GetTranscriptRequest) (schema.GetTranscriptResponse, error)
	ScrollTranscript(ctx context.Context, req schema.ScrollTranscriptRequest) (schema.ScrollTranscriptResponse, error)
	GetStatus(ctx context.Context, req schema.GetStatusRequest) (schema.GetStatusResponse, error)
	GetHistory(ctx context.Context, req schema.GetHistoryRequest) (schema.GetHistoryResponse, error)
	// Catalog returns the text the service speaks, for presentation layers.
	Catalog() Catalog
	// CloseAll closes every open session and reports how many were closed.
	CloseAll(ctx context.Context) int
}
