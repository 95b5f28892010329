package event

type Type string

const (
	TypeUploadInitialized Type = "upload.initialized"
	TypeUploadCompleted   Type = "upload.completed"
	TypeUploadRejected    Type = "upload.rejected"
	TypeUploadAborted     Type = "upload.aborted"
	TypeFineTuneRequested Type = "job.finetune.requested"
	TypeCurationRequested Type = "job.curation.requested"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
