package models

import "time"

type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
	Size int64  `json:"size,omitempty"`
}

type Comment struct {
	ID          string       `json:"id"`
	CaseID      string       `json:"caseId"`
	Author      string       `json:"author"`
	Content     string       `json:"content"`
	ParentID    *string      `json:"parentId"`
	CreatedAt   time.Time    `json:"timestamp"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Edited      bool         `json:"edited"`
	Revision    int          `json:"revision"`
	Attachments []Attachment `json:"attachments"`
}

// Clone returns a deep copy so callers can't mutate stored records.
func (c *Comment) Clone() *Comment {
	cp := *c
	if c.ParentID != nil {
		p := *c.ParentID
		cp.ParentID = &p
	}
	cp.Attachments = make([]Attachment, len(c.Attachments))
	copy(cp.Attachments, c.Attachments)
	return &cp
}

type CommentRequest struct {
	CaseID      string       `json:"caseId"`
	Author      string       `json:"author"`
	Content     string       `json:"content"`
	ParentID    *string      `json:"parentId,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type UpdateRequest struct {
	Author   string `json:"author"`
	Content  string `json:"content"`
	Revision *int   `json:"revision,omitempty"`
}

type DeleteRequest struct {
	Author string `json:"author"`
}

type CommentNode struct {
	*Comment
	ContentHTML string         `json:"contentHtml,omitempty"`
	Children    []*CommentNode `json:"children"`
}

type ThreadView struct {
	CaseID   string         `json:"caseId"`
	Threads  []*CommentNode `json:"threads"`
	Orphaned int            `json:"orphaned"`
}
