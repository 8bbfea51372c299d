package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// GroupServiceName is the fully-qualified name of the GroupService service.
const GroupServiceName = "splitledger.v1.GroupService"

const (
	GroupServiceListGroupsProcedure  = "/splitledger.v1.GroupService/ListGroups"
	GroupServiceCreateGroupProcedure = "/splitledger.v1.GroupService/CreateGroup"
	GroupServiceJoinGroupProcedure   = "/splitledger.v1.GroupService/JoinGroup"
	GroupServiceListMembersProcedure = "/splitledger.v1.GroupService/ListMembers"
)

// GroupServiceClient is a client for the splitledger.v1.GroupService service.
type GroupServiceClient interface {
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
}

// NewGroupServiceClient constructs a client for the splitledger.v1.GroupService service.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &groupServiceClient{
		listGroups: connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](
			httpClient, baseURL+GroupServiceListGroupsProcedure, clientOptions(opts),
		),
		createGroup: connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](
			httpClient, baseURL+GroupServiceCreateGroupProcedure, clientOptions(opts),
		),
		joinGroup: connect.NewClient[api.JoinGroupRequest, api.JoinGroupResponse](
			httpClient, baseURL+GroupServiceJoinGroupProcedure, clientOptions(opts),
		),
		listMembers: connect.NewClient[api.ListMembersRequest, api.ListMembersResponse](
			httpClient, baseURL+GroupServiceListMembersProcedure, clientOptions(opts),
		),
	}
}

type groupServiceClient struct {
	listGroups  *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	createGroup *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	joinGroup   *connect.Client[api.JoinGroupRequest, api.JoinGroupResponse]
	listMembers *connect.Client[api.ListMembersRequest, api.ListMembersResponse]
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

// GroupServiceHandler is implemented by the GroupService server.
type GroupServiceHandler interface {
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	listGroupsHandler := connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, handlerOptions(opts))
	createGroupHandler := connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, handlerOptions(opts))
	joinGroupHandler := connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, handlerOptions(opts))
	listMembersHandler := connect.NewUnaryHandler(GroupServiceListMembersProcedure, svc.ListMembers, handlerOptions(opts))

	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceListGroupsProcedure:
			listGroupsHandler.ServeHTTP(w, r)
		case GroupServiceCreateGroupProcedure:
			createGroupHandler.ServeHTTP(w, r)
		case GroupServiceJoinGroupProcedure:
			joinGroupHandler.ServeHTTP(w, r)
		case GroupServiceListMembersProcedure:
			listMembersHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
