package streams

// Stream name constants
const (
	StreamBriefReady   = "brief:ready"   // published by this service, consumed by the audio renderer
	StreamAudioResults = "audio:results" // published by the audio renderer, consumed here
)

// Consumer group constants
const (
	GroupAudioRenderers = "audio-renderers" // renderer side
	GroupBriefWorkers   = "brief-workers"   // this service
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// BriefReadyEvent announces that a brief has a script ready for rendering.
// Delivery is best-effort; the renderer's own poller over script_ready briefs
// is the reliable path.
type BriefReadyEvent struct {
	EventID   string `json:"event_id"`
	BriefID   uint   `json:"brief_id"`
	UserID    uint   `json:"user_id"`
	BriefType string `json:"brief_type"`
	Headline  string `json:"headline"`
}

// AudioResult is the renderer's verdict on one brief.
type AudioResult struct {
	BriefID  uint   `json:"brief_id"`
	Status   string `json:"status"` // completed/failed
	AudioURL string `json:"audio_url"`
	Error    string `json:"error"`
}
