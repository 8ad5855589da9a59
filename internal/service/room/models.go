package room

type Role string

const (
	RoleHost        Role = "HOST"
	RoleModerator   Role = "MODERATOR"
	RoleParticipant Role = "PARTICIPANT"
)

type Member struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Player is the state a late joiner needs to resume mid-session.
type Player struct {
	VideoId     string  `json:"videoId"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
}

// Room is the full snapshot broadcast on every membership or role change.
// Users is keyed by member id; join order is tracked server-side.
type Room struct {
	VideoId     string            `json:"videoId"`
	IsPlaying   bool              `json:"isPlaying"`
	CurrentTime float64           `json:"currentTime"`
	HostId      string            `json:"hostId"`
	Users       map[string]Member `json:"users"`
}
