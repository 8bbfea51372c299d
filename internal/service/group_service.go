package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
// Every method expects RequireAuth to have put the caller in the context.
type GroupService struct {
	ledger *ledger.Service
}

// NewGroupService creates a new GroupService.
func NewGroupService(l *ledger.Service) *GroupService {
	return &GroupService{ledger: l}
}

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (int64, error) {
	userID := middleware.GetUserID(ctx)
	if userID == 0 {
		return 0, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// ListGroups returns the caller's groups in join order.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.ledger.ListGroups(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupToAPI(g))
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// CreateGroup creates a group with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	group, err := s.ledger.CreateGroup(ctx, userID, req.Msg.Name)
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(group)}), nil
}

// JoinGroup adds the caller to the group with the given code.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("JoinGroup request received", "user_id", userID)

	result, err := s.ledger.JoinGroup(ctx, userID, req.Msg.Code)
	if err != nil {
		slog.Warn("JoinGroup failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	status := api.JoinStatusJoined
	if result.AlreadyMember {
		status = api.JoinStatusAlreadyMember
	}
	return connect.NewResponse(&api.JoinGroupResponse{
		Status: status,
		Group:  groupToAPI(result.Group),
	}), nil
}

// ListMembers returns a group's members in join order.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}

	members, err := s.ledger.ListMembers(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Member, 0, len(members))
	for _, m := range members {
		out = append(out, memberToAPI(m))
	}
	return connect.NewResponse(&api.ListMembersResponse{Members: out}), nil
}
