package models

// DocxContentType is the content type of rendered vacancy documents.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// RenderedDocument is a rendered submission ready for a sink or notifier.
type RenderedDocument struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

func (d *RenderedDocument) Size() int64 {
	return int64(len(d.Data))
}

// StoredDocument describes a document after a DocumentStore accepted it.
type StoredDocument struct {
	Key          string `json:"key"`
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	SubmissionID string `json:"submissionId,omitempty"`
	CreatedAt    string `json:"createdAt"`
}
