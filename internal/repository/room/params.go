package room

type SetPlayerParams struct {
	VideoId     string
	IsPlaying   bool
	CurrentTime float64
	RoomId      string
}

type UpdatePlayerStateParams struct {
	IsPlaying   bool
	CurrentTime float64
	RoomId      string
}

type UpdatePlayerVideoParams struct {
	VideoId string
	RoomId  string
}

type SetMemberParams struct {
	MemberId string
	Username string
	Role     string
	RoomId   string
}

type GetMemberParams struct {
	MemberId string
	RoomId   string
}

type RemoveMemberParams struct {
	MemberId string
	RoomId   string
}

type UpdateMemberRoleParams struct {
	MemberId string
	Role     string
	RoomId   string
}
