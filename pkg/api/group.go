package api

// JoinStatus values for JoinGroupResponse.Status.
const (
	JoinStatusJoined        = "joined"
	JoinStatusAlreadyMember = "already_member"
)

type Group struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"`
}

type Member struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	JoinedAt int64  `json:"joined_at"`
}

// ListGroupsRequest lists the caller's groups; the caller comes from the token.
type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type JoinGroupRequest struct {
	Code string `json:"code"`
}

type JoinGroupResponse struct {
	Status string `json:"status"`
	Group  *Group `json:"group"`
}

type ListMembersRequest struct {
	GroupID int64 `json:"group_id"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}
