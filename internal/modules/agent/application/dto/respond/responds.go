package respond

type AgentRespond struct {
	Id         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Status     string `json:"status"`
	IsVerified bool   `json:"isVerified"`
	IsApproved bool   `json:"isApproved"`
}

type LoginRespond struct {
	Token string       `json:"token"`
	Agent AgentRespond `json:"agent"`
}

type AdminLoginRespond struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type InvitationRespond struct {
	Email      string `json:"email"`
	Department string `json:"department"`
	Token      string `json:"token"`
	ExpiresAt  string `json:"expiresAt"`
}

type DepartmentRespond struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

// OverviewRespond 管理端首页汇总
type OverviewRespond struct {
	Agents          []AgentRespond `json:"agents"`
	PendingApproval int            `json:"pendingApproval"`
	OnlineCount     int            `json:"onlineCount"`
}
