package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/sharelyst/internal/settlement"
	"github.com/mmynk/sharelyst/internal/storage"
	"github.com/mmynk/sharelyst/pkg/api"
	"github.com/mmynk/sharelyst/pkg/api/apiconnect"
)

var _ apiconnect.SettlementServiceHandler = (*SettlementService)(nil)

// SettlementService implements the Connect SettlementService. Both RPCs act
// on the caller's own group.
type SettlementService struct {
	users  storage.UserStore
	engine *settlement.Engine
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(users storage.UserStore, engine *settlement.Engine) *SettlementService {
	return &SettlementService{users: users, engine: engine}
}

// ComputeSettlement returns the transfers that would settle the caller's group.
func (s *SettlementService) ComputeSettlement(ctx context.Context, req *connect.Request[api.ComputeSettlementRequest]) (*connect.Response[api.ComputeSettlementResponse], error) {
	groupID, err := callerGroupID(ctx, s.users)
	if err != nil {
		return nil, fail("ComputeSettlement", err)
	}

	report, err := s.engine.ComputeSettlement(ctx, groupID)
	if err != nil {
		return nil, fail("ComputeSettlement", err, "group_id", groupID)
	}

	slog.Info("Settlement computed",
		"group_id", groupID,
		"ledger_version", report.LedgerVersion,
		"transfers", len(report.Transfers),
	)
	return connect.NewResponse(toAPIReport(report)), nil
}

// SettleGroup resets or deletes the caller's group.
func (s *SettlementService) SettleGroup(ctx context.Context, req *connect.Request[api.SettleGroupRequest]) (*connect.Response[api.SettleGroupResponse], error) {
	groupID, err := callerGroupID(ctx, s.users)
	if err != nil {
		return nil, fail("SettleGroup", err)
	}

	result, err := s.engine.SettleGroup(ctx, groupID, req.Msg.Action, req.Msg.ExpectedVersion)
	if err != nil {
		return nil, fail("SettleGroup", err, "group_id", groupID, "action", req.Msg.Action)
	}

	return connect.NewResponse(&api.SettleGroupResponse{
		Action:  string(result.Action),
		Message: result.Message,
	}), nil
}
