package domain

import "encoding/json"

// MessageKind is the closed set of message discriminants understood by the router.
type MessageKind string

const (
	KindListSnapshots   MessageKind = "LIST_SNAPSHOTS"
	KindGetSnapshot     MessageKind = "GET_SNAPSHOT"
	KindDeleteSnapshot  MessageKind = "DELETE_SNAPSHOT"
	KindCaptureSnapshot MessageKind = "CAPTURE_SNAPSHOT"
	KindSaveSnapshot    MessageKind = "SAVE_SNAPSHOT_DATA"
	KindTranslateText   MessageKind = "TRANSLATE_TEXT"
	KindExportObsidian  MessageKind = "EXPORT_TO_OBSIDIAN"
	// KindCaptureRequest is forwarded from the background to a tab, never routed.
	KindCaptureRequest MessageKind = "CAPTURE_SNAPSHOT_REQUEST"

	KindSearchSnapshots MessageKind = "SEARCH_SNAPSHOTS"
	KindUpdateSnapshot  MessageKind = "UPDATE_SNAPSHOT"
	KindAddAnnotation   MessageKind = "ADD_ANNOTATION"
	KindListCategories  MessageKind = "LIST_CATEGORIES"
	KindCreateCategory  MessageKind = "CREATE_CATEGORY"
	KindTranslateBatch  MessageKind = "TRANSLATE_BATCH"
	KindCheckProviders  MessageKind = "CHECK_PROVIDERS"
	KindExportSnapshot  MessageKind = "EXPORT_SNAPSHOT"
	KindGetSettings     MessageKind = "GET_SETTINGS"
	KindUpdateSettings  MessageKind = "UPDATE_SETTINGS"
)

// Message is the envelope exchanged between execution contexts.
type Message struct {
	Type      MessageKind     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// MessageResponse answers exactly one Message. Data is meaningful only when Success is set,
// Error only when it is not.
type MessageResponse struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage encodes payload into a message of the given kind. A nil payload is omitted.
func NewMessage(kind MessageKind, payload any) (Message, error) {
	msg := Message{Type: kind}
	if payload == nil {
		return msg, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = b
	return msg, nil
}

// Failure builds an unsuccessful response for msg.
func Failure(msg Message, errText string) MessageResponse {
	return MessageResponse{Success: false, Error: errText, RequestID: msg.RequestID}
}

// CaptureAck is returned to the initiator of CAPTURE_SNAPSHOT.
type CaptureAck struct {
	Status string `json:"status"`
}

const CaptureRequestSent = "request_sent"

type DeleteResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type ExportResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
}

type ExportRequest struct {
	ID     string `json:"id"`
	Format string `json:"format"`
}

type ExportFile struct {
	Filename      string `json:"filename"`
	ContentBase64 string `json:"contentBase64"`
}
