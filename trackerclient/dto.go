package trackerclient

import "time"

// SprintDTO is the wire shape of a tracker sprint, before field mapping
// translates it into model.Sprint.
type SprintDTO struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	State         string     `json:"state"`
	Goal          string     `json:"goal"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	CompleteDate  *time.Time `json:"completeDate"`
	OriginBoardID int64      `json:"originBoardId"`
	LastUpdated   *time.Time `json:"-"`
}

// IssueDTO is the wire shape of a tracker issue.
type IssueDTO struct {
	Key    string                 `json:"key"`
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

// BoardDTO is the wire shape of a tracker board.
type BoardDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ProjectDTO is the wire shape of a tracker project.
type ProjectDTO struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// FieldDTO is the wire shape of a tracker custom field definition.
type FieldDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
	Schema struct {
		Type string `json:"type"`
	} `json:"schema"`
}

// ChangelogItem describes one field change inside a webhook changelog.
type ChangelogItem struct {
	Field     string `json:"field"`
	FieldType string `json:"fieldtype"`
	FromValue string `json:"from"`
	FromStr   string `json:"fromString"`
	ToValue   string `json:"to"`
	ToStr     string `json:"toString"`
}

// WebhookEnvelope is the JSON body the tracker posts to the webhook
// surface (spec.md section 6).
type WebhookEnvelope struct {
	WebhookEvent string     `json:"webhookEvent"`
	Timestamp    int64      `json:"timestamp"`
	EventID      string     `json:"event_id"`
	Issue        *IssueDTO  `json:"issue,omitempty"`
	Sprint       *SprintDTO `json:"sprint,omitempty"`
	Changelog    *struct {
		Items []ChangelogItem `json:"items"`
	} `json:"changelog,omitempty"`
}
