package api

import (
	"context"

	"github.com/terra-clan/ds-visualizer/internal/workspace"
)

type contextKey string

const workspaceContextKey contextKey = "workspace"

// WorkspaceFromContext extracts the visitor's workspace from context
func WorkspaceFromContext(ctx context.Context) *workspace.Workspace {
	ws, ok := ctx.Value(workspaceContextKey).(*workspace.Workspace)
	if !ok {
		return nil
	}
	return ws
}

// ContextWithWorkspace adds the workspace to context
func ContextWithWorkspace(ctx context.Context, ws *workspace.Workspace) context.Context {
	return context.WithValue(ctx, workspaceContextKey, ws)
}
