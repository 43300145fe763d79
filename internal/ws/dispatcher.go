package ws

import (
	"context"
	"encoding/json"

	"retail-backend/internal/apperror"
	"retail-backend/internal/models"

	"go.uber.org/zap"
)

const (
	CommandGetBranch = "getBranch"
	CommandGetUsers  = "getUsers"
)

// Frame is one client message.
type Frame struct {
	Token   string          `json:"token"`
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Reply struct {
	Error   bool   `json:"error"`
	Command string `json:"command"`
	Message string `json:"message"`
	Payload any    `json:"payload"`
}

type BranchOverview interface {
	Overview(ctx context.Context, token string) ([]models.Branch, error)
}

type UserOverview interface {
	Overview(ctx context.Context, token string) ([]models.User, []models.AdminNote, error)
}

// Dispatcher answers frames without touching the socket.
type Dispatcher struct {
	branches BranchOverview
	users    UserOverview
	log      *zap.Logger
}

func NewDispatcher(branches BranchOverview, users UserOverview, log *zap.Logger) *Dispatcher {
	return &Dispatcher{branches: branches, users: users, log: log}
}

func (d *Dispatcher) Handle(ctx context.Context, raw []byte) Reply {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Reply{Error: true, Command: "error", Message: "client request error", Payload: map[string]any{}}
	}

	switch f.Command {
	case CommandGetBranch:
		branches, err := d.branches.Overview(ctx, f.Token)
		if err != nil {
			return d.failure("branchList", err, map[string]any{"branches": []models.Branch{}})
		}
		return Reply{Command: "branchList", Payload: map[string]any{"branches": branches}}

	case CommandGetUsers:
		users, notes, err := d.users.Overview(ctx, f.Token)
		if err != nil {
			return d.failure("users", err, map[string]any{"users": []models.User{}, "messages": []models.AdminNote{}})
		}
		return Reply{Command: "users", Payload: map[string]any{"users": users, "messages": notes}}

	default:
		err := apperror.Newf(apperror.ValidationError, "unknown command %q", f.Command)
		return d.failure(f.Command, err, map[string]any{})
	}
}

func (d *Dispatcher) failure(command string, err error, empty map[string]any) Reply {
	if apperror.KindOf(err) == apperror.Internal {
		d.log.Error("WebSocket command failed", zap.String("command", command), zap.Error(err))
	}
	return Reply{Error: true, Command: command, Message: apperror.Message(err), Payload: empty}
}
