package room

type Player struct {
	VideoId     string  `redis:"video_id"`
	IsPlaying   bool    `redis:"is_playing"`
	CurrentTime float64 `redis:"current_time"`
}

type Member struct {
	Username string `redis:"username"`
	Role     string `redis:"role"`
}
