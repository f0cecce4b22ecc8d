package packets

// RESPONSES FOR /api/tv/*

type PairResponse struct {
	ScreenID     int    `json:"screen_id"`
	Name         string `json:"name"`
	DeviceID     string `json:"device_id"`
	CommandTopic string `json:"command_topic"`
}

type AudienceResponse struct {
	SnapshotID int    `json:"snapshot_id"`
	Faces      int    `json:"faces"`
	Source     string `json:"source"`
	ETag       string `json:"etag"`
}
