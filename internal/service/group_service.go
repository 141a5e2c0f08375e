package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/storage"
	"github.com/mmynk/sharelyst/pkg/api"
	"github.com/mmynk/sharelyst/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with a fresh join code and adds the caller to it.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "user_id", userID, "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, fail("CreateGroup", ErrGroupNameRequired, "user_id", userID)
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(req.Msg.Description),
	}
	if err := s.store.CreateGroup(ctx, group, userID); err != nil {
		return nil, fail("CreateGroup", err, "user_id", userID)
	}

	created, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, fail("CreateGroup", err, "group_id", group.ID)
	}

	slog.Info("Group created", "group_id", created.ID, "code", created.Code)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(created)}), nil
}

// JoinGroup adds the caller to the group with the given code.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("JoinGroup request received", "user_id", userID, "code", req.Msg.Code)

	if !models.ValidGroupCode(req.Msg.Code) {
		return nil, fail("JoinGroup", ErrInvalidCode, "user_id", userID)
	}

	group, err := s.store.GetGroupByCode(ctx, req.Msg.Code)
	if err != nil {
		return nil, fail("JoinGroup", err, "user_id", userID, "code", req.Msg.Code)
	}
	if err := s.store.JoinGroup(ctx, userID, group.ID); err != nil {
		return nil, fail("JoinGroup", err, "user_id", userID, "group_id", group.ID)
	}

	joined, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, fail("JoinGroup", err, "group_id", group.ID)
	}

	slog.Info("Group joined", "user_id", userID, "group_id", joined.ID)
	return connect.NewResponse(&api.JoinGroupResponse{Group: toAPIGroup(joined)}), nil
}

// LeaveGroup removes the caller from their group.
func (s *GroupService) LeaveGroup(ctx context.Context, req *connect.Request[api.LeaveGroupRequest]) (*connect.Response[api.LeaveGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.LeaveGroup(ctx, userID)
	if err != nil {
		return nil, fail("LeaveGroup", err, "user_id", userID)
	}

	slog.Info("Group left", "user_id", userID, "group_deleted", deleted)
	return connect.NewResponse(&api.LeaveGroupResponse{GroupDeleted: deleted}), nil
}

// GetMyGroup returns the caller's group, or an empty response if they have none.
func (s *GroupService) GetMyGroup(ctx context.Context, req *connect.Request[api.GetMyGroupRequest]) (*connect.Response[api.GetMyGroupResponse], error) {
	groupID, err := callerGroupID(ctx, s.store)
	if errors.Is(err, storage.ErrNotInGroup) {
		return connect.NewResponse(&api.GetMyGroupResponse{}), nil
	}
	if err != nil {
		return nil, fail("GetMyGroup", err)
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fail("GetMyGroup", err, "group_id", groupID)
	}
	return connect.NewResponse(&api.GetMyGroupResponse{Group: toAPIGroup(group)}), nil
}
