package withdrawal

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// RpcId names an operator RPC.
type RpcId string

const (
	RpcId_RPC_ID_WITHDRAWAL_STATUS  RpcId = "withdrawal_status"
	RpcId_RPC_ID_WITHDRAWAL_REQUEUE RpcId = "withdrawal_requeue"
)

func (id RpcId) String() string {
	return string(id)
}

// RegisterRpcs registers the operator RPCs. They are only callable server to server.
func RegisterRpcs(engine *Engine, initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcId_RPC_ID_WITHDRAWAL_STATUS.String(), rpcWithdrawalStatus(engine)); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcId_RPC_ID_WITHDRAWAL_REQUEUE.String(), rpcWithdrawalRequeue(engine)); err != nil {
		return err
	}
	return nil
}

// rejectUserSession fails calls made with a user session.
func rejectUserSession(ctx context.Context, logger runtime.Logger) error {
	if userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string); ok && userID != "" {
		logger.Warn("User %s attempted to call an operator rpc", userID)
		return ErrUserSession
	}
	return nil
}

func rpcWithdrawalStatus(engine *Engine) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		if err := rejectUserSession(ctx, logger); err != nil {
			return "", err
		}

		status := engine.Status()
		if !status.Enabled {
			return "", ErrEngineUnavailable
		}

		data, err := json.Marshal(status)
		if err != nil {
			logger.Error("Failed to marshal withdrawal status: %v", err)
			return "", ErrPayloadEncode
		}
		return string(data), nil
	}
}

func rpcWithdrawalRequeue(engine *Engine) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		if err := rejectUserSession(ctx, logger); err != nil {
			return "", err
		}

		var request struct {
			File string `json:"file"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal requeue request: %v", err)
			return "", ErrPayloadDecode
		}

		if err := engine.Requeue(request.File); err != nil {
			return "", err
		}

		response := struct {
			File     string `json:"file"`
			Requeued bool   `json:"requeued"`
		}{
			File:     request.File,
			Requeued: true,
		}
		data, err := json.Marshal(response)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}
		return string(data), nil
	}
}
