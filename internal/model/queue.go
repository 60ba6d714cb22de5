package model

// QueueItem is one unit of ingestion work. Document content is fetched by
// id at processing time, not carried in the item.
type QueueItem struct {
	DocID    string `json:"doc_id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}
